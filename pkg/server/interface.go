/*
Package server implements msgpack IPC for mention suggestion services.

The server reads a stream of msgpack messages from stdin and writes one
response per message to stdout. Each message carries an ID, echoed back, and
an optional action. Messages without an action are mention requests.

# Mention requests

A mention request carries the editor text, the caret offset and the committed
mention regions as byte offsets:

	{"id": "req_001", "t": "Hello @jo", "c": 9, "m": [], "l": 5}

The server tokenizes the text around the caret, queries every bucket for the
token and replies with the token window and the merged suggestions:

	{"id": "req_001", "a": true, "tok": "@jo", "kw": "jo", "x": true, "s": 6, "e": 9,
	 "sg": [{"i": 2, "w": "Johanna Smith", "b": "people", "r": 1}], "c": 1, "t": 85}

When the caret is not on a valid token the reply has "a": false and no
suggestions. Buckets that do not answer within bucket_timeout_ms are left out
and listed under "p".

# Dictionary requests

	{"id": "dict_001", "action": "get_info"}
	{"id": "dict_002", "action": "reload"}

# Errors

Malformed messages get an ErrorResponse with an HTTP-like code:

	{"id": "req_001", "e": "mention region [4, 2) is inverted", "c": 400}
*/
package server

// MentionRequest asks for the token and suggestions at a caret.
type MentionRequest struct {
	ID       string     `msgpack:"id"`
	Text     string     `msgpack:"t"`
	Cursor   uint32     `msgpack:"c"`
	Mentions [][]uint32 `msgpack:"m,omitempty"`
	Limit    int        `msgpack:"l,omitempty"`
}

// MentionSuggestion is one suggestion in a MentionResponse.
type MentionSuggestion struct {
	ID     int    `msgpack:"i"`
	Text   string `msgpack:"w"`
	Bucket string `msgpack:"b"`
	Rank   uint16 `msgpack:"r"`
}

// MentionResponse describes the token at the caret and its suggestions.
type MentionResponse struct {
	ID          string              `msgpack:"id"`
	Active      bool                `msgpack:"a"`
	Token       string              `msgpack:"tok,omitempty"`
	Keywords    string              `msgpack:"kw,omitempty"`
	Explicit    bool                `msgpack:"x,omitempty"`
	Start       uint32              `msgpack:"s"`
	End         uint32              `msgpack:"e"`
	Suggestions []MentionSuggestion `msgpack:"sg"`
	Count       int                 `msgpack:"c"`
	Pending     []string            `msgpack:"p,omitempty"`
	TimeTaken   int64               `msgpack:"t"`
}

// DictionaryRequest manages the loaded buckets.
type DictionaryRequest struct {
	ID     string `msgpack:"id"`
	Action string `msgpack:"action"` // "get_info", "reload"
}

// BucketInfo describes one loaded bucket.
type BucketInfo struct {
	Name    string `msgpack:"name"`
	Entries int    `msgpack:"entries"`
}

// DictionaryResponse - dictionary operation response
type DictionaryResponse struct {
	ID      string       `msgpack:"id"`
	Status  string       `msgpack:"status"`
	Error   string       `msgpack:"error,omitempty"`
	Buckets []BucketInfo `msgpack:"buckets,omitempty"`
	Entries int          `msgpack:"entries"`
}

// ErrorResponse holds basic error information for failed requests
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}

// envelope is decoded first to route a message.
type envelope struct {
	ID     string `msgpack:"id"`
	Action string `msgpack:"action"`
}
