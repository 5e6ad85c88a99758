// defaults.go: default values for all configuration parameters.
package conf

import "github.com/spf13/viper"

// setDefaultConfig sets the default values for each configuration parameter.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "GreeNest")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs")

	viper.SetDefault("server.host", "")
	viper.SetDefault("server.port", 10000)

	viper.SetDefault("sheet.id", "")
	viper.SetDefault("sheet.tab", "GreeNest Farm Tracker")
	viper.SetDefault("sheet.credentialsfile", "")
	viper.SetDefault("sheet.credentialsjson", "")

	viper.SetDefault("telegram.token", "")
	viper.SetDefault("telegram.chatid", 0)
	viper.SetDefault("telegram.apibase", "https://api.telegram.org")
	viper.SetDefault("telegram.dedupettlsecs", 600)

	viper.SetDefault("analyzer.endpoint", "")
	viper.SetDefault("analyzer.timeoutsecs", 45)

	viper.SetDefault("relay.backendurl", "")
	viper.SetDefault("relay.timeoutsecs", 30)

	viper.SetDefault("trigger.secret", "")

	viper.SetDefault("notify.shoutrrrurls", []string{})
}
