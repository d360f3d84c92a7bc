// Package parable defines the core types and configuration for the parable
// command, a retrieval-augmented generator of parables in the style of four
// religious traditions.
package parable

// Request describes one parable generation request.
type Request struct {
	// Tradition is the registry name of the tradition to emulate.
	Tradition string
	// Topic is the theme the parable should explore.
	Topic string
	// WordCount is the desired length of the parable. 0 means no target.
	WordCount int
	// Instructions are optional extra constraints from the user.
	Instructions string
}

// Passage is a retrieved corpus segment with its rendered citation.
type Passage struct {
	// Ref is the human-readable citation (e.g. "John 3:16-17").
	Ref string `json:"ref"`
	// Text is the passage text.
	Text string `json:"text"`
	// Score is the cosine similarity between the passage and the topic.
	Score float64 `json:"score"`
}

// Parable is a generated parable split into its framing parts.
type Parable struct {
	// Title is the parsed "Title:" line, or empty when the model did not
	// follow the framing.
	Title string
	// Body is the parable text between title and moral.
	Body string
	// Moral is the parsed "Moral:" line, or empty when absent.
	Moral string
	// Raw is the full unparsed model output.
	Raw string
}

// Result bundles a generated parable with the passages it drew on.
type Result struct {
	Parable  Parable
	Passages []Passage
}
