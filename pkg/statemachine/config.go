package statemachine

// Config 爬行器配置
type Config struct {
	PathFinder   string `yaml:"path_finder" json:"path_finder" env:"CRAWLER_PATH_FINDER"`
	HistoryLimit int    `yaml:"history_limit" json:"history_limit" env:"CRAWLER_HISTORY_LIMIT"`
	Session      string `yaml:"session" json:"session" env:"CRAWLER_SESSION"`
}

// Options 转换为爬行器选项，HistoryLimit<0 表示不记录历史
func (c Config) Options() ([]Option, error) {
	pf, err := ParsePathFinder(c.PathFinder)
	if err != nil {
		return nil, err
	}
	opts := []Option{WithPathFinder(pf), WithSession(c.Session)}
	if c.HistoryLimit >= 0 {
		opts = append(opts, WithHistory(c.HistoryLimit))
	}
	return opts, nil
}
