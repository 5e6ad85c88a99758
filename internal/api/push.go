package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/greenest/greenest-go/internal/ingest"
	"github.com/greenest/greenest-go/internal/record"
)

// PushResponse is the direct-push success body.
type PushResponse struct {
	Status string   `json:"status"`
	Row    []string `json:"row"`
	// RowIndex is the sheet row the record landed in, 0 when unknown.
	RowIndex int64 `json:"row_index,omitempty"`
}

// PushTrayData handles POST /push_tray_data and the legacy /push_data
// alias. The body is a JSON object carrying any subset of the canonical
// field names, legacy spellings included.
func (c *Controller) PushTrayData(ctx echo.Context) error {
	var payload map[string]any
	if err := ctx.Bind(&payload); err != nil {
		return c.HandleError(ctx, err, "request body is not a JSON object", http.StatusBadRequest)
	}

	res := c.pipeline.ProcessDirect(ctx.Request().Context(), payload, record.SourceDirect, nil)
	if res.Status != ingest.StatusSuccess {
		return c.HandleError(ctx, res.Err, "failed to append tray data", http.StatusInternalServerError)
	}

	return ctx.JSON(http.StatusOK, &PushResponse{
		Status:   string(res.Status),
		Row:      res.Row,
		RowIndex: res.RowIndex,
	})
}
