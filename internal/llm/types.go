package llm

type Request struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

type Response struct {
	Content    string
	StopReason string
}
