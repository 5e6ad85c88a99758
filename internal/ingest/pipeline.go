package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/greenest/greenest-go/internal/analyzer"
	"github.com/greenest/greenest-go/internal/logging"
	"github.com/greenest/greenest-go/internal/notify"
	"github.com/greenest/greenest-go/internal/observability"
	"github.com/greenest/greenest-go/internal/record"
	"github.com/greenest/greenest-go/internal/sheetstore"
	"github.com/greenest/greenest-go/internal/summary"
	"github.com/greenest/greenest-go/internal/telegram"
)

// Advisory replies sent back to the bot user on input defects. These are
// producer defects, not system failures.
const (
	replyNoImage        = "📸 Please upload an image with a tray name as the caption."
	replyMissingCaption = "⚠️ Please send the tray name in the *caption* of the image."
)

// BotTransport is the two-operation collaborator the bot flow needs.
type BotTransport interface {
	FileURL(ctx context.Context, fileID string) (string, error)
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// ImageAnalyzer converts an image reference into tray metrics.
type ImageAnalyzer interface {
	Analyze(ctx context.Context, imageURL, trayName string) (map[string]any, error)
}

// Pipeline wires the store, writer, notifier and collaborators for the
// ingestion flow. It is stateless per event; the injected handles are
// established once at process start and shared read-only.
type Pipeline struct {
	store       sheetstore.Store
	writer      *sheetstore.Writer
	notifier    *notify.Notifier
	analyzer    ImageAnalyzer
	bot         BotTransport
	metrics     *observability.Metrics
	defaultChat int64
	title       string
	now         func() time.Time
	log         *slog.Logger
}

// Option configures optional pipeline collaborators.
type Option func(*Pipeline)

// WithBot sets the bot transport used by the webhook flow.
func WithBot(bot BotTransport) Option {
	return func(p *Pipeline) { p.bot = bot }
}

// WithAnalyzer sets the image analysis collaborator.
func WithAnalyzer(a ImageAnalyzer) Option {
	return func(p *Pipeline) { p.analyzer = a }
}

// WithMetrics attaches metric collectors.
func WithMetrics(m *observability.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithDefaultChat sets the destination for events that arrive without a
// chat of their own (direct pushes, relays).
func WithDefaultChat(chatID int64) Option {
	return func(p *Pipeline) { p.defaultChat = chatID }
}

// WithClock overrides the timestamp clock. Tests use this.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithTitle sets the notification title, normally the instance name.
func WithTitle(title string) Option {
	return func(p *Pipeline) { p.title = title }
}

// New builds a Pipeline on the given store and notifier.
func New(store sheetstore.Store, notifier *notify.Notifier, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:    store,
		notifier: notifier,
		title:    "GreeNest",
		now:      time.Now,
		log:      logging.ForService("ingest"),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.writer = sheetstore.NewWriter(store, p.log)
	return p
}

// ProcessDirect runs one payload through normalize, header check, append
// and notify. destinations may be empty; the default chat is then used
// when configured. Mandatory-step failures abort the event and are
// surfaced verbatim; notification failures are absorbed into the report.
func (p *Pipeline) ProcessDirect(ctx context.Context, payload map[string]any, source record.Source, destinations []int64) Result {
	rec := record.Normalize(payload, source, p.now)

	repaired, err := sheetstore.EnsureHeader(ctx, p.store, p.log)
	if err != nil {
		p.countEvent(source, StatusFailed)
		p.log.Error("header check failed", "source", source, "error", err)
		return Result{Status: StatusFailed, Err: err}
	}
	if repaired && p.metrics != nil {
		p.metrics.HeaderRepairs.Inc()
	}

	rowIndex, err := p.writer.Append(ctx, &rec)
	if err != nil {
		p.countEvent(source, StatusFailed)
		p.log.Error("append failed", "source", source, "tray", rec.TrayName, "error", err)
		return Result{Status: StatusFailed, Err: err}
	}
	if p.metrics != nil {
		p.metrics.RowsAppendedTotal.Inc()
	}

	report := p.fanOut(ctx, destinations, notify.Render(&rec))

	p.countEvent(source, StatusSuccess)
	return Result{
		Status:   StatusSuccess,
		Row:      rec.Row(),
		RowIndex: rowIndex,
		Report:   report,
	}
}

// ProcessUpdate handles one bot webhook envelope: the /summary command,
// input-defect rejections, and the image flow through the analyzer into
// the direct path. Rejections produce zero store appends.
func (p *Pipeline) ProcessUpdate(ctx context.Context, update *telegram.Update) BotResult {
	chatID := update.ChatID()

	if update.IsSummaryCommand() {
		p.serveSummary(ctx, chatID)
		return BotResult{Status: StatusSummarySent}
	}

	if !update.HasPhoto() {
		p.reply(ctx, chatID, replyNoImage)
		p.countEvent(record.SourceBotImage, StatusNoImage)
		return BotResult{Status: StatusNoImage}
	}

	tray := update.CaptionTrayName()
	if tray == "" {
		p.reply(ctx, chatID, replyMissingCaption)
		p.countEvent(record.SourceBotImage, StatusMissingCaption)
		return BotResult{Status: StatusMissingCaption}
	}

	payload := p.analyzePhoto(ctx, update, tray)

	res := p.ProcessDirect(ctx, payload, record.SourceBotImage, []int64{chatID})
	if res.Status != StatusSuccess {
		return BotResult{Status: StatusFailed, Tray: tray, Ingest: &res}
	}
	return BotResult{Status: StatusImageProcessed, Tray: tray, Ingest: &res}
}

// analyzePhoto resolves the uploaded file and calls the analyzer. Any
// failure along the way degrades to the fallback result: the event must
// still produce a stored row and a user-visible notice.
func (p *Pipeline) analyzePhoto(ctx context.Context, update *telegram.Update, tray string) map[string]any {
	if p.analyzer == nil {
		return analyzer.Fallback(tray)
	}

	fileURL := ""
	if p.bot != nil {
		u, err := p.bot.FileURL(ctx, update.LargestPhoto().FileID)
		if err != nil {
			p.log.Warn("file resolution failed, using fallback result", "tray", tray, "error", err)
			p.countAnalyzerFailure()
			return analyzer.Fallback(tray)
		}
		fileURL = u
	}

	result, err := p.analyzer.Analyze(ctx, fileURL, tray)
	if err != nil {
		p.log.Warn("analysis failed, using fallback result", "tray", tray, "error", err)
		p.countAnalyzerFailure()
		return analyzer.Fallback(tray)
	}
	return result
}

// BuildSummary aggregates the store and returns the rendered summary text.
func (p *Pipeline) BuildSummary(ctx context.Context) (string, error) {
	text, err := summary.Build(ctx, p.store)
	if err != nil {
		return "", err
	}
	if p.metrics != nil {
		p.metrics.SummaryBuildsTotal.Inc()
	}
	return text, nil
}

// SendSummary aggregates the store and delivers the summary to the given
// chat, falling back to the default chat when chatID is zero.
func (p *Pipeline) SendSummary(ctx context.Context, chatID int64) (string, error) {
	text, err := p.BuildSummary(ctx)
	if err != nil {
		return "", err
	}
	if chatID == 0 {
		chatID = p.defaultChat
	}
	p.fanOut(ctx, []int64{chatID}, text)
	return text, nil
}

func (p *Pipeline) serveSummary(ctx context.Context, chatID int64) {
	text, err := p.BuildSummary(ctx)
	if err != nil {
		p.log.Error("summary build failed", "error", err)
		p.reply(ctx, chatID, "⚠️ Could not read tray data right now.")
		return
	}
	p.reply(ctx, chatID, text)
}

// fanOut delivers text to the destinations, defaulting to the configured
// chat. A nil report means there was nothing to deliver to.
func (p *Pipeline) fanOut(ctx context.Context, destinations []int64, text string) *notify.DeliveryReport {
	targets := make([]int64, 0, len(destinations))
	for _, d := range destinations {
		if d != 0 {
			targets = append(targets, d)
		}
	}
	if len(targets) == 0 && p.defaultChat != 0 {
		targets = append(targets, p.defaultChat)
	}
	if p.notifier == nil {
		return nil
	}
	// Sinks still receive the broadcast even with no chat destination.

	report := p.notifier.Send(ctx, targets, p.title, text)
	if p.metrics != nil {
		for _, d := range report.Deliveries {
			p.metrics.RecordDelivery(d.Target, d.OK)
		}
	}
	return &report
}

// reply sends an advisory message to the chat through the bot transport.
// Failures are logged only; advisories never affect event status.
func (p *Pipeline) reply(ctx context.Context, chatID int64, text string) {
	if p.bot == nil || chatID == 0 {
		return
	}
	if err := p.bot.SendMessage(ctx, chatID, text); err != nil {
		p.log.Warn("advisory reply failed", "chat_id", chatID, "error", err)
	}
}

func (p *Pipeline) countEvent(source record.Source, status Status) {
	if p.metrics != nil {
		p.metrics.IngestEventsTotal.WithLabelValues(string(source), string(status)).Inc()
	}
}

func (p *Pipeline) countAnalyzerFailure() {
	if p.metrics != nil {
		p.metrics.AnalyzerFailuresTotal.Inc()
	}
}
