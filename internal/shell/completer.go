package shell

import (
	"sort"
	"strings"
	"sync"

	"github.com/plinth-cli/plinth/internal/dispatch"
)

// Completer produces tab-completion candidates from the live namespace tree
// plus the shell's built-in command set. It implements
// readline.AutoCompleter.
//
// Candidates are cached per typed prefix and the cache is dropped whenever
// the registry notifies a structural change, so a plugin enable/disable is
// reflected on the very next keystroke. The cache is derived state, never a
// source of truth.
type Completer struct {
	registry *dispatch.Registry
	builtins []string

	mu    sync.Mutex
	cache map[string][]string
}

// NewCompleter builds a completer over the registry. The caller is
// responsible for wiring Invalidate to the registry's change notifications.
func NewCompleter(registry *dispatch.Registry, builtins []string) *Completer {
	sorted := append([]string{}, builtins...)
	sort.Strings(sorted)
	return &Completer{
		registry: registry,
		builtins: sorted,
		cache:    make(map[string][]string),
	}
}

// Invalidate drops all cached candidates. Wired to Registry.Subscribe.
func (c *Completer) Invalidate() {
	c.mu.Lock()
	c.cache = make(map[string][]string)
	c.mu.Unlock()
}

// Candidates returns completions for the line as typed so far. tokens holds
// completed path segments and partial the segment being typed.
func (c *Completer) Candidates(tokens []string, partial string) []string {
	key := strings.Join(tokens, "\x00") + "\x00" + partial
	c.mu.Lock()
	if hit, ok := c.cache[key]; ok {
		c.mu.Unlock()
		return hit
	}
	c.mu.Unlock()

	out := c.registry.Complete(tokens, partial)
	if len(tokens) == 0 {
		for _, b := range c.builtins {
			if strings.HasPrefix(b, partial) {
				out = append(out, b)
			}
		}
		sort.Strings(out)
	}

	c.mu.Lock()
	c.cache[key] = out
	c.mu.Unlock()
	return out
}

// Do implements the readline.AutoCompleter interface: it completes the word
// at the cursor and returns candidate suffixes plus the length of the
// prefix being completed.
func (c *Completer) Do(line []rune, pos int) ([][]rune, int) {
	typed := string(line[:pos])

	fields := strings.Fields(typed)
	partial := ""
	if len(fields) > 0 && !strings.HasSuffix(typed, " ") {
		partial = fields[len(fields)-1]
		fields = fields[:len(fields)-1]
	}

	var out [][]rune
	for _, cand := range c.Candidates(fields, partial) {
		suffix := strings.TrimPrefix(cand, partial) + " "
		out = append(out, []rune(suffix))
	}
	return out, len([]rune(partial))
}
