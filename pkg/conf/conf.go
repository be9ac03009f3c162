package conf

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pion/ion-ice/ice"
	"github.com/pion/logging"
	"github.com/spf13/viper"
)

type log struct {
	Level string `mapstructure:"level"`
}

// ICE holds the agent tunables. Durations accept Go duration strings.
type ICE struct {
	TimingAdvance       time.Duration `mapstructure:"ta"`
	Lite                bool          `mapstructure:"lite"`
	Aggressive          bool          `mapstructure:"aggressive"`
	Keepalive           time.Duration `mapstructure:"keepalive"`
	DisconnectedTimeout time.Duration `mapstructure:"disconnectedtimeout"`
	SelectionTimeout    time.Duration `mapstructure:"selectiontimeout"`
	MaxBindingRequests  uint16        `mapstructure:"maxbindingrequests"`
}

type transport struct {
	Addr    string        `mapstructure:"addr"`
	Peer    string        `mapstructure:"peer"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Config is the process configuration
type Config struct {
	Log       log       `mapstructure:"log"`
	ICE       ICE       `mapstructure:"ice"`
	Transport transport `mapstructure:"transport"`
	CfgFile   string
}

func showHelp() {
	fmt.Printf("Usage:%s {params}\n", os.Args[0])
	fmt.Println("      -c {config file}")
	fmt.Println("      -h (show help info)")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("ice.ta", "50ms")
	v.SetDefault("ice.keepalive", "2s")
	v.SetDefault("ice.disconnectedtimeout", "5s")
	v.SetDefault("ice.selectiontimeout", "10s")
	v.SetDefault("ice.maxbindingrequests", 7)
	v.SetDefault("transport.addr", "127.0.0.1:0")
	v.SetDefault("transport.peer", "127.0.0.1:0")
	v.SetDefault("transport.timeout", "10s")
}

// Load reads a toml config file
func Load(file string) (*Config, error) {
	if _, err := os.Stat(file); err != nil {
		return nil, fmt.Errorf("config file %s: %w", file, err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(file)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config file %s read failed: %w", file, err)
	}

	c := &Config{}
	if err := v.UnmarshalExact(c); err != nil {
		return nil, fmt.Errorf("config file %s loaded failed: %w", file, err)
	}
	c.CfgFile = file
	return c, nil
}

// Parse loads the file named by the -c flag
func Parse() (*Config, bool) {
	file := flag.String("c", "conf/conf.toml", "config file")
	help := flag.Bool("h", false, "help info")
	flag.Parse()
	if *help {
		showHelp()
		return nil, false
	}

	c, err := Load(*file)
	if err != nil {
		fmt.Println(err)
		showHelp()
		return nil, false
	}
	fmt.Printf("config %s load ok!\n", *file)
	return c, true
}

// AgentConfig turns the [ice] section into an ice.AgentConfig
func (c ICE) AgentConfig(controlling bool, loggerFactory logging.LoggerFactory) *ice.AgentConfig {
	config := &ice.AgentConfig{
		Controlling:   controlling,
		Lite:          c.Lite,
		LoggerFactory: loggerFactory,
	}
	if c.Aggressive {
		config.NominationMode = ice.NominationAggressive
	}
	if c.TimingAdvance > 0 {
		ta := c.TimingAdvance
		config.TimingAdvance = &ta
	}
	if c.Keepalive > 0 {
		keepalive := c.Keepalive
		config.KeepaliveInterval = &keepalive
	}
	if c.DisconnectedTimeout > 0 {
		timeout := c.DisconnectedTimeout
		config.DisconnectedTimeout = &timeout
	}
	if c.SelectionTimeout > 0 {
		timeout := c.SelectionTimeout
		config.CandidateSelectionTimeout = &timeout
	}
	if c.MaxBindingRequests > 0 {
		requests := c.MaxBindingRequests
		config.MaxBindingRequests = &requests
	}
	return config
}
