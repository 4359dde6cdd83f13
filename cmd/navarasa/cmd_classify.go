package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ayusman/navarasa/internal/assess"
	"github.com/ayusman/navarasa/internal/landmark"
	"github.com/ayusman/navarasa/internal/session"
	"github.com/ayusman/navarasa/internal/store"
)

var (
	classifyJSON   bool
	classifyLive   bool
	classifySave   bool
	classifyLocale string
)

// classifyCmd classifies an NDJSON stream of landmark frames
var classifyCmd = &cobra.Command{
	Use:   "classify [file|-]",
	Short: "Classify landmark frames from a file or stdin",
	Long: `Reads newline-delimited JSON landmark frames and prints the emotion
breakdown of each frame followed by the final assessment.

Each line is an object with a "landmarks" array of {x, y, z} points
(468 or 478 of them); an empty array means no face was detected.

With --live the input is treated as a real-time feed: frames that arrive
while the previous one is still being classified are dropped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "print results as NDJSON")
	classifyCmd.Flags().BoolVar(&classifyLive, "live", false, "drop stale frames instead of classifying every frame")
	classifyCmd.Flags().BoolVar(&classifySave, "save", false, "persist status changes to the database")
	classifyCmd.Flags().StringVar(&classifyLocale, "locale", "", "advisory locale: en or id (default from config)")
}

type classifyOptions struct {
	JSON   bool
	Live   bool
	Locale string
	Sink   session.StatusSink
	Logger *zap.Logger
}

func runClassify(cmd *cobra.Command, args []string) error {
	in := cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	opts := classifyOptions{
		JSON:   classifyJSON,
		Live:   classifyLive,
		Locale: cfg.Session.Locale,
		Logger: logger,
	}
	if classifyLocale != "" {
		opts.Locale = classifyLocale
	}

	if classifySave {
		path, err := cfg.DBPath()
		if err != nil {
			return err
		}
		st, err := store.New(path)
		if err != nil {
			return err
		}
		defer st.Close()
		opts.Sink = store.NewSink(st)
	}

	_, err := classify(cmd.Context(), in, cmd.OutOrStdout(), opts)
	return err
}

// classify runs one session over the frames in r, writing each result and
// the final assessment to w.
func classify(ctx context.Context, r io.Reader, w io.Writer, opts classifyOptions) (assess.Assessment, error) {
	sess, err := session.New(session.Options{
		Locale: opts.Locale,
		Logger: opts.Logger,
		Sink:   opts.Sink,
	})
	if err != nil {
		return assess.Assessment{}, err
	}
	defer sess.Close()

	dec := landmark.NewDecoder(r)
	enc := json.NewEncoder(w)
	emit := func(res session.Result) error {
		if opts.JSON {
			return enc.Encode(res)
		}
		_, err := fmt.Fprintf(w, "Frame %d\n%s\n\n", res.Seq, res.Text())
		return err
	}

	if opts.Live {
		err = processLive(ctx, sess, dec, emit)
	} else {
		err = processAll(ctx, sess, dec, emit)
	}
	if err != nil {
		return assess.Assessment{}, err
	}

	final := sess.Assessment()
	if opts.JSON {
		return final, enc.Encode(struct {
			Final assess.Assessment `json:"final"`
		}{final})
	}
	_, err = fmt.Fprintf(w, "Final assessment: %s\nRecommendation: %s\n", final.Label, final.Advisory)
	return final, err
}

func processAll(ctx context.Context, sess *session.Session, dec *landmark.Decoder, emit func(session.Result) error) error {
	for {
		f, err := dec.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		res, err := sess.Process(ctx, f)
		if err != nil && !errors.Is(err, landmark.ErrInvalidFrame) {
			return err
		}
		if err := emit(res); err != nil {
			return err
		}
	}
}

func processLive(ctx context.Context, sess *session.Session, dec *landmark.Decoder, emit func(session.Result) error) error {
	results, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	done := make(chan error, 1)
	go func() {
		var emitErr error
		for res := range results {
			if emitErr == nil {
				emitErr = emit(res)
			}
		}
		done <- emitErr
	}()

	pumpErr := sess.Pump(ctx, dec)
	unsubscribe()
	emitErr := <-done

	if pumpErr != nil {
		return pumpErr
	}
	return emitErr
}
