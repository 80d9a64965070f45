package model

// ================ Config ================
type ConversationConfig struct {
	TTL     string `envconfig:"CONVERSATION_TTL" default:"0"`
	Backend string `envconfig:"CHECKPOINT_BACKEND" default:"redis"`
}

type ChatModelConfig struct {
	Model       string  `envconfig:"CHAT_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"CHAT_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"CHAT_TEMPERATURE" default:"0.2"`
}

type EmbeddingConfig struct {
	Model      string `envconfig:"EMBEDDING_MODEL" default:"gemini-embedding-001"`
	Dimensions int    `envconfig:"EMBEDDING_DIMENSIONS" default:"768"`
}

type SummaryConfig struct {
	TriggerTurns int `envconfig:"SUMMARY_TRIGGER_TURNS" default:"8"`
	KeepTurns    int `envconfig:"SUMMARY_KEEP_TURNS" default:"3"`
	MaxChars     int `envconfig:"SUMMARY_MAX_CHARS" default:"1200"`
}

type RetrievalConfig struct {
	TopK int `envconfig:"RETRIEVAL_TOP_K" default:"3"`
}

// EffectiveKeepTurns clamps the keep window below the trigger threshold.
// A misconfigured value is silently adjusted rather than rejected.
func (c SummaryConfig) EffectiveKeepTurns() int {
	keep := c.KeepTurns
	if keep >= c.TriggerTurns {
		keep = c.TriggerTurns - 1
	}
	if keep < 1 {
		keep = 1
	}
	return keep
}
