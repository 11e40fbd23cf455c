// internal/cli/show_config_entry.go
package pythia

import (
	"os"

	"github.com/k0kubun/pp"
	"github.com/mwiater/pythia/internal/appconfig"
	"github.com/spf13/viper"
)

func runShowConfig() {
	cfg := GetConfig()
	file := viper.ConfigFileUsed()
	if cfg != nil {
		file = cfg.ConfigPath
	}

	appconfig.ShowConfig(os.Stdout, file, cfg)

	if cfg != nil && cfg.Debug {
		pp.Println(cfg)
	}
}
