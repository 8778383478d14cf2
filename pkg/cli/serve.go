package cli

// This implements a simple long-running service over stdin/stdout so that a
// bundler running in another process can ask for many resolutions without
// paying for process startup each time. Each request and each response is a
// single line of JSON:
//
//   -> {"id":1,"importee":"@lib/util","importer":"/abs/src/main.js"}
//   <- {"id":1,"path":"/abs/src/external/lib/util.js","resolved":true}
//   <- {"id":1,"resolved":false}
//   <- {"id":1,"resolved":false,"error":"..."}
//
// Requests are handled concurrently, so responses may arrive out of order.

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/ngbazel/resolvebazel/internal/logger"
	"github.com/ngbazel/resolvebazel/internal/resolver"
	"github.com/ngbazel/resolvebazel/internal/watcher"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const maxRequestSize = 16 * 1024 * 1024

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type serveRequest struct {
	ID       uint32 `json:"id"`
	Importee string `json:"importee"`
	Importer string `json:"importer"`
}

type serveResponse struct {
	ID       uint32 `json:"id"`
	Path     string `json:"path,omitempty"`
	Resolved bool   `json:"resolved"`
	Error    string `json:"error,omitempty"`
}

func (c *commandContext) newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Answer resolution requests over stdin and stdout",
		Long: `Reads one JSON request per line from stdin and writes one JSON response per
line to stdout until stdin is closed. Answers are remembered, and forgotten
again when files below the root directory change unless --watch=false.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, realFS, err := c.newResolver(cmd)
			if err != nil {
				return err
			}
			cache := resolver.NewCache(res)

			if c.viper.GetBool(argWatch) {
				rootDir := realFS.Join(realFS.Cwd(), res.Options().RootDir)
				w, err := watcher.New(c.log, rootDir, cache.Invalidate)
				if err != nil {
					return err
				}
				defer w.Close()
			}

			return runService(cmd.Context(), cache, c.log, c.stdin, c.stdout)
		},
	}

	cmd.Flags().Bool(argWatch, true, "Watch the root directory and forget remembered answers when it changes")
	return cmd
}

func runService(ctx context.Context, res resolver.Interface, log logger.Log, stdin io.Reader, stdout io.Writer) error {
	g, ctx := errgroup.WithContext(ctx)

	// Write messages on a single goroutine so they aren't interleaved
	outgoingMessages := make(chan []byte)
	g.Go(func() error {
		for message := range outgoingMessages {
			if _, err := stdout.Write(message); err != nil {
				return errors.Wrap(err, "failed to write to stdout")
			}
		}
		return nil
	})

	waitGroup := &sync.WaitGroup{}
	scanner := bufio.NewScanner(stdin)
	scanner.Buffer(make([]byte, 0, 4096), maxRequestSize)

	for ctx.Err() == nil && scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		// Clone the input and run it on another goroutine
		waitGroup.Add(1)
		clone := append([]byte{}, line...)
		go func() {
			defer waitGroup.Done()
			handleIncomingMessage(ctx, res, log, clone, outgoingMessages)
		}()
	}
	readErr := scanner.Err()

	// Wait for the last response before telling the writer to stop
	waitGroup.Wait()
	close(outgoingMessages)

	if err := g.Wait(); err != nil {
		return err
	}
	if readErr != nil {
		return errors.Wrap(readErr, "failed to read from stdin")
	}
	return nil
}

func handleIncomingMessage(ctx context.Context, res resolver.Interface, log logger.Log, message []byte, outgoingMessages chan<- []byte) {
	var request serveRequest
	var response serveResponse

	if err := json.Unmarshal(message, &request); err != nil {
		response.Error = "Invalid request: " + err.Error()
	} else {
		response.ID = request.ID
		result, err := res.Resolve(request.Importee, request.Importer)
		if err != nil {
			response.Error = err.Error()
		} else if result != nil {
			response.Path = result.Path
			response.Resolved = true
		}
	}

	bytes, err := json.Marshal(response)
	if err != nil {
		log.AddError("Internal error: " + err.Error())
		return
	}
	bytes = append(bytes, '\n')

	// The writer stops early if stdout went away
	select {
	case outgoingMessages <- bytes:
	case <-ctx.Done():
	}
}
