// Command mentionclient sends one mention request to a mentionserve process
// and prints the reply. Mark the caret in the text with "|":
//
//	mentionclient "Hello @jo|" 5
package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"fortio.org/safecast"
	"github.com/bastiangx/mentionserve/internal/cli"
	"github.com/bastiangx/mentionserve/pkg/server"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

func main() {
	bin := flag.String("server", "./mentionserve", "Path to the mentionserve binary")
	data := flag.String("data", "", "Data dir passed to the server")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("Usage: mentionclient [-server path] [-data dir] <text with |> [limit]")
		os.Exit(1)
	}

	text, cursor := cli.ParseLine(flag.Arg(0), "|")
	limit := 10
	if flag.NArg() > 1 {
		if n, err := strconv.Atoi(flag.Arg(1)); err == nil {
			limit = n
		}
	}
	c, err := safecast.Conv[uint32](cursor)
	if err != nil {
		fmt.Printf("Cursor out of range: %v\n", err)
		os.Exit(1)
	}

	request := server.MentionRequest{
		ID:     uuid.NewString(),
		Text:   text,
		Cursor: c,
		Limit:  limit,
	}
	requestData, err := msgpack.Marshal(request)
	if err != nil {
		fmt.Printf("Failed to encode request: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Encoded request (%d bytes): %x\n", len(requestData), requestData)

	args := []string{"-no-watch"}
	if *data != "" {
		args = append(args, "-data", *data)
	}
	cmd := exec.Command(*bin, args...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		fmt.Printf("Failed to get stdin pipe: %v\n", err)
		os.Exit(1)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		fmt.Printf("Failed to get stdout pipe: %v\n", err)
		os.Exit(1)
	}
	if err := cmd.Start(); err != nil {
		fmt.Printf("Failed to start server: %v\n", err)
		os.Exit(1)
	}

	if _, err := stdin.Write(requestData); err != nil {
		fmt.Printf("Failed to write request: %v\n", err)
		os.Exit(1)
	}
	stdin.Close()

	var raw msgpack.RawMessage
	if err := msgpack.NewDecoder(stdout).Decode(&raw); err != nil {
		fmt.Printf("Failed to read response: %v\n", err)
		os.Exit(1)
	}
	cmd.Wait()

	var fields map[string]any
	if err := msgpack.Unmarshal(raw, &fields); err == nil {
		if _, isErr := fields["e"]; isErr {
			var errorResponse server.ErrorResponse
			if err := msgpack.Unmarshal(raw, &errorResponse); err == nil {
				fmt.Printf("Error: %s (code: %d)\n", errorResponse.Error, errorResponse.Code)
				os.Exit(1)
			}
		}
	}

	var response server.MentionResponse
	if err := msgpack.Unmarshal(raw, &response); err != nil {
		fmt.Printf("Failed to decode response: %v\n", err)
		os.Exit(1)
	}

	if !response.Active {
		fmt.Printf("No active mention token at %d in %q\n", cursor, text)
		return
	}
	kind := "implicit"
	if response.Explicit {
		kind = "explicit"
	}
	fmt.Printf("Token %q [%d, %d) %s, keywords %q\n", response.Token, response.Start, response.End, kind, response.Keywords)
	fmt.Printf("Count: %d\n", response.Count)
	fmt.Printf("Time: %d microseconds\n", response.TimeTaken)
	for _, s := range response.Suggestions {
		fmt.Printf("  %d. %s (%s #%d)\n", s.Rank, s.Text, s.Bucket, s.ID)
	}
	if len(response.Pending) > 0 {
		fmt.Printf("Buckets that did not answer: %v\n", response.Pending)
	}
}
