package store

// AppSettings are the defaults applied to every new slideshow session.
type AppSettings struct {
	IntervalSeconds int    `json:"interval_seconds"`
	Transition      string `json:"transition"`
	FitMode         string `json:"fit_mode"`
}
