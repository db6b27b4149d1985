package web

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"gpsfuse/internal/gps"
)

func writeJSON(w http.ResponseWriter, v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, "marshal failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(b)
	_, _ = w.Write([]byte("\n"))
}

func getOnly(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// Handler serves the status API, the raw sentence tail, the live stream and a
// minimal status page. logs and stream may be nil.
func Handler(status *Status, logs *LogBuffer, stream *Broadcaster, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		if !getOnly(w, r) {
			return
		}
		writeJSON(w, status.Snapshot(time.Now().UTC()))
	})

	// Raw NMEA tail, newest last.
	mux.HandleFunc("/api/sentences", func(w http.ResponseWriter, r *http.Request) {
		if !getOnly(w, r) {
			return
		}
		lines := status.recentLines()
		if s := strings.TrimSpace(r.URL.Query().Get("tail")); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 {
				http.Error(w, "tail must be a positive integer", http.StatusBadRequest)
				return
			}
			if n < len(lines) {
				lines = lines[len(lines)-n:]
			}
		}
		if strings.EqualFold(r.URL.Query().Get("format"), "text") {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Header().Set("Cache-Control", "no-store")
			for _, rl := range lines {
				_, _ = w.Write([]byte(rl.Line + "\r\n"))
			}
			return
		}
		if lines == nil {
			lines = []gps.Received{}
		}
		writeJSON(w, struct {
			Sentences []gps.Received `json:"sentences"`
		}{Sentences: lines})
	})

	if stream != nil {
		mux.HandleFunc("/api/stream", streamHandler(stream, logger))
	}

	if logs != nil {
		mux.Handle("/api/logs", logs.Handler())
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if !getOnly(w, r) {
			return
		}
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		snap := status.Snapshot(time.Now().UTC())
		g := snap.GPS
		pos := "-"
		if g.LatDeg != nil && g.LonDeg != nil {
			pos = fmt.Sprintf("%.6f, %.6f", *g.LatDeg, *g.LonDeg)
		}
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprintf(w, "<!doctype html><html><head><meta charset=\"utf-8\"><title>gpsfuse</title></head><body>")
		_, _ = fmt.Fprintf(w, "<h1>gpsfuse</h1>")
		_, _ = fmt.Fprintf(w, "<p>JSON: <a href=\"/api/status\">/api/status</a>, <a href=\"/api/sentences\">/api/sentences</a>. Live: ws /api/stream.</p>")
		_, _ = fmt.Fprintf(w, "<pre>source=%s device=%s link=%s\nfixed=%v quality=%s method=%s\nposition=%s utc=%s\nlines=%d fused=%d skipped=%d\nlast_error=%s</pre>",
			html.EscapeString(g.Source), html.EscapeString(g.Device), html.EscapeString(g.Link),
			g.Fixed, g.FixQuality, g.FixMethod,
			pos, g.UTC,
			g.Lines, g.Fused, g.Skipped,
			html.EscapeString(g.LastError),
		)
		_, _ = fmt.Fprintf(w, "</body></html>")
	})

	return mux
}

func Serve(ctx context.Context, listenAddr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       30 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MiB
		// Requests, including hijacked stream connections, end with ctx.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
