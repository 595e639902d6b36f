package session

// Sentence is a deck entry with a typing cursor.
type Sentence struct {
	Text []rune
	Pos  int
}

// NewSentence wraps text.
func NewSentence(text string) *Sentence {
	return &Sentence{Text: []rune(text)}
}

// Len returns the sentence length in runes.
func (s *Sentence) Len() int {
	return len(s.Text)
}

// Done reports whether every rune was typed.
func (s *Sentence) Done() bool {
	return s.Pos >= len(s.Text)
}

// Expected returns the next rune to type, or 0 when done.
func (s *Sentence) Expected() rune {
	if s.Done() {
		return 0
	}
	return s.Text[s.Pos]
}

// Advance moves the cursor one rune forward.
func (s *Sentence) Advance() {
	if !s.Done() {
		s.Pos++
	}
}

// Typed returns the consumed prefix.
func (s *Sentence) Typed() string {
	return string(s.Text[:s.Pos])
}

// Remaining returns the unconsumed suffix.
func (s *Sentence) Remaining() string {
	return string(s.Text[s.Pos:])
}

// Deck is the ordered sentence list of one phase.
type Deck struct {
	sentences []*Sentence
	idx       int
}

// NewDeck builds a deck from texts.
func NewDeck(texts []string) *Deck {
	d := &Deck{sentences: make([]*Sentence, 0, len(texts))}
	for _, t := range texts {
		d.sentences = append(d.sentences, NewSentence(t))
	}
	return d
}

// Len returns the number of sentences.
func (d *Deck) Len() int {
	if d == nil {
		return 0
	}
	return len(d.sentences)
}

// Index returns the position of the current sentence.
func (d *Deck) Index() int {
	if d == nil {
		return 0
	}
	return d.idx
}

// Current returns the sentence being typed, or nil when the deck is done.
func (d *Deck) Current() *Sentence {
	if d.Done() {
		return nil
	}
	return d.sentences[d.idx]
}

// Next moves to the following sentence.
func (d *Deck) Next() {
	if !d.Done() {
		d.idx++
	}
}

// Done reports whether every sentence was completed.
func (d *Deck) Done() bool {
	return d == nil || d.idx >= len(d.sentences)
}

// Progress returns the fraction of the current sentence typed.
func (d *Deck) Progress() float64 {
	cur := d.Current()
	if cur == nil || cur.Len() == 0 {
		return 0
	}
	return float64(cur.Pos) / float64(cur.Len())
}
