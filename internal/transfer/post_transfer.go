package transfer

type PostCreation struct {
	AccountID         int64  `json:"account_id"`
	Content           string `json:"content"`
	ScheduledTime     string `json:"scheduled_time"`
	SecondStageOptOut bool   `json:"second_stage_opt_out"`
}

type QuoteFill struct {
	PostID  int64  `json:"post_id"`
	Content string `json:"content"`
}

type AccountSettings struct {
	AccountID        int64  `json:"account_id"`
	FollowUpContent  string `json:"follow_up_content"`
	MonitoredAccount string `json:"monitored_account"`
	AutoPost         bool   `json:"auto_post"`
	AutoQuote        bool   `json:"auto_quote"`
}
