package prompt

// Mode selects how a prompt's model output is delivered.
type Mode string

const (
	// ModeChat streams the response incrementally, chunk by chunk.
	ModeChat Mode = "chat"
	// ModeGuided buffers the full response and parses it as a JSON document.
	ModeGuided Mode = "guided"
)

// Prompt is one entry of the prompt catalog exposed to the frontend.
type Prompt struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Categories []string `json:"categories"`
	HelpText   string   `json:"helpText,omitempty"`
	Mode       Mode     `json:"mode"`

	// Template is parsed once at catalog construction.
	Template *Template `json:"-"`
}
