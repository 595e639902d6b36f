package provider

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// stockSentences is the built-in pool used when no generator is reachable.
var stockSentences = []string{
	"the cat is sleeping on the sofa",
	"we walk along the river at night",
	"a small bird rests on the fence",
	"they read a book under a tree",
	"music plays softly in the hall",
	"i make tea and sit by the lamp",
	"the door opens and we move on",
	"a bright star shines over town",
	"the dog is running in the yard",
	"we talk and laugh on the train",
	"a warm wind comes from the sea",
	"time flows like water in a stream",
	"please hold the line and wait",
	"the sun rises over the hill",
	"a child draws a house and a car",
}

// Static serves a fixed sentence pool.
type Static struct {
	pool []string
}

// NewStatic returns a provider over pool, or the built-in pool when empty.
func NewStatic(pool []string) *Static {
	if len(pool) == 0 {
		pool = stockSentences
	}
	return &Static{pool: append([]string(nil), pool...)}
}

// Name implements Provider.
func (s *Static) Name() string {
	return "static"
}

// Generate returns the whole pool; selection happens downstream.
func (s *Static) Generate(ctx context.Context, _ Request) Result {
	if err := ctx.Err(); err != nil {
		return Failure(s.Name(), err)
	}
	return Success(s.Name(), append([]string(nil), s.pool...))
}

// LoadPool reads one sentence per line from path.
func LoadPool(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only pool file.
			_ = cerr
		}
	}()

	var sentences []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sentences = append(sentences, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(sentences) == 0 {
		return nil, fmt.Errorf("sentence pool is empty")
	}
	return sentences, nil
}
