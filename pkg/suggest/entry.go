package suggest

import "fmt"

// Entry is a dictionary record that can be suggested.
type Entry struct {
	ID     int    `msgpack:"id" toml:"id"`
	Text   string `msgpack:"text" toml:"text"`
	Weight int    `msgpack:"weight,omitempty" toml:"weight,omitempty"`
}

// SuggestibleID implements Suggestible.
func (e Entry) SuggestibleID() int {
	return e.ID
}

// PrimaryText implements Suggestible.
func (e Entry) PrimaryText() string {
	return e.Text
}

func (e Entry) String() string {
	return fmt.Sprintf("%s#%d", e.Text, e.ID)
}
