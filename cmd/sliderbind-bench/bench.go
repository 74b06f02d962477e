package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/sliderbind/pkg/dom"
	"github.com/vango-dev/sliderbind/pkg/protocol"
	"github.com/vango-dev/sliderbind/pkg/server"
)

const (
	benchPage = "bench"
	sliderMax = 1000
)

type benchCounters struct {
	dragsSent      atomic.Uint64
	dragsComplete  atomic.Uint64
	dragBytes      atomic.Uint64
	frameBytes     atomic.Uint64
	valueFrames    atomic.Uint64
	renderFrames   atomic.Uint64
	stateFrames    atomic.Uint64
	valuesReceived atomic.Uint64
}

type benchErrors struct {
	handshakeFailures   atomic.Uint64
	writeFailures       atomic.Uint64
	frameDecodeFailures atomic.Uint64
	serverErrorFrames   atomic.Uint64
	valueMissing        atomic.Uint64
	totalErrors         atomic.Uint64
}

// sliderPage renders n single-handle sliders s0..s{n-1} on 0..sliderMax.
func sliderPage(n int) server.Page {
	return server.Page{
		Name:  benchPage,
		Title: "Benchmark",
		Build: func(doc *dom.Document) error {
			root := doc.Root()
			for i := 0; i < n; i++ {
				id := "s" + strconv.Itoa(i)
				root.AppendChild(doc.CreateElement("label", doc.CreateText("Slider "+strconv.Itoa(i))).SetAttr("for", id))
				root.AppendChild(doc.CreateElement("input").SetAttr("id", id).AddClass("jslider").
					SetAttr("data-from", "0").
					SetAttr("data-to", strconv.Itoa(sliderMax)).
					SetAttr("value", "0"))
			}
			return nil
		},
	}
}

func runBench(ctx context.Context, cfg benchConfig) (benchReport, error) {
	registry := prometheus.NewRegistry()
	srv, err := server.New(&server.Config{
		Address:     "127.0.0.1:0",
		DefaultPage: benchPage,
		CheckOrigin: func(r *http.Request) bool { return true },
	},
		server.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		server.WithPage(sliderPage(cfg.Sliders)),
		server.WithMetrics(server.WithRegistry(registry)),
	)
	if err != nil {
		return benchReport{}, err
	}

	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		return benchReport{}, fmt.Errorf("listen: %w", err)
	}
	httpServer := &http.Server{Handler: srv.Handler()}
	go func() {
		_ = httpServer.Serve(ln)
	}()
	defer func() {
		_ = srv.Shutdown(context.Background())
		_ = httpServer.Shutdown(context.Background())
	}()

	wsURL := "ws://" + ln.Addr().String() + "/ws"

	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	samplesCh := make(chan time.Duration, sampleBuffer(cfg.Clients))
	var samples []time.Duration
	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for rtt := range samplesCh {
			samples = append(samples, rtt)
		}
	}()

	var counters benchCounters
	var errCounts benchErrors

	var before runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	beforeMetrics := readRuntimeMetrics()

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(cfg.Clients)
	for i := 0; i < cfg.Clients; i++ {
		clientID := i
		go func() {
			defer wg.Done()
			if err := runClient(ctx, wsURL, clientID, cfg, &counters, &errCounts, samplesCh); err != nil {
				errCounts.totalErrors.Add(1)
			}
		}()
	}

	wg.Wait()
	close(samplesCh)
	<-collectorDone

	elapsed := time.Since(start)

	var after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&after)
	afterMetrics := readRuntimeMetrics()

	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })

	serverSide, err := gatherServerCounters(registry)
	if err != nil {
		return benchReport{}, fmt.Errorf("gather metrics: %w", err)
	}

	return buildReport(cfg, elapsed, samples, &counters, &errCounts, serverSide, before, after, beforeMetrics, afterMetrics), nil
}

func sampleBuffer(clients int) int {
	return max(clients*4, 1024)
}

// runClient opens one session, then drags its slider at the target rate and
// waits for every new value to come back in a values message.
func runClient(
	ctx context.Context,
	wsURL string,
	clientID int,
	cfg benchConfig,
	counters *benchCounters,
	errCounts *benchErrors,
	samples chan<- time.Duration,
) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		errCounts.handshakeFailures.Add(1)
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	input := "s" + strconv.Itoa(clientID%cfg.Sliders)
	if err := writeMessage(conn, &protocol.ClientMessage{Type: protocol.TypeInit, Page: benchPage}, counters); err != nil {
		errCounts.handshakeFailures.Add(1)
		return fmt.Errorf("init write: %w", err)
	}
	if cfg.Mode == modeAnimate {
		if err := writeMessage(conn, &protocol.ClientMessage{Type: protocol.TypeAnimate, ID: input, On: true}, counters); err != nil {
			errCounts.handshakeFailures.Add(1)
			return fmt.Errorf("animate write: %w", err)
		}
	}

	period := time.Duration(float64(time.Second) / cfg.RPS)
	var seq int
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		seq++
		want := dragValue(clientID, seq)
		start := time.Now()
		drag := &protocol.ClientMessage{Type: protocol.TypeDrag, ID: input, Value: strconv.Itoa(want)}
		if err := writeMessage(conn, drag, counters); err != nil {
			errCounts.writeFailures.Add(1)
			return fmt.Errorf("drag write: %w", err)
		}
		counters.dragsSent.Add(1)

		if cfg.EventTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(cfg.EventTimeout))
		}
		eventCtx, cancel := context.WithTimeout(ctx, cfg.EventTimeout)
		err := waitForValue(eventCtx, conn, input, float64(want), counters, errCounts)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
				errCounts.valueMissing.Add(1)
				return fmt.Errorf("value %d of %s not relayed", want, input)
			}
			return fmt.Errorf("wait for value: %w", err)
		}

		counters.dragsComplete.Add(1)
		samples <- time.Since(start)

		if sleep := period - time.Since(start); sleep > 0 {
			timer := time.NewTimer(sleep)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil
			case <-timer.C:
			}
		}
	}
}

func writeMessage(conn *websocket.Conn, m *protocol.ClientMessage, counters *benchCounters) error {
	data, err := m.Encode()
	if err != nil {
		return err
	}
	counters.dragBytes.Add(uint64(len(data)))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func waitForValue(
	ctx context.Context,
	conn *websocket.Conn,
	input string,
	want float64,
	counters *benchCounters,
	errCounts *benchErrors,
) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		counters.frameBytes.Add(uint64(len(data)))
		msg, err := protocol.DecodeServer(data)
		if err != nil {
			errCounts.frameDecodeFailures.Add(1)
			return err
		}

		switch msg.Type {
		case protocol.TypeValues:
			counters.valueFrames.Add(1)
			counters.valuesReceived.Add(uint64(len(msg.Values)))
			if v, ok := msg.Values[input]; ok && !v.IsPair() && v.Float() == want {
				return nil
			}
		case protocol.TypeRender:
			counters.renderFrames.Add(1)
		case protocol.TypeState:
			counters.stateFrames.Add(1)
		case protocol.TypeError:
			errCounts.serverErrorFrames.Add(1)
			return fmt.Errorf("server error %s: %s", msg.Code, msg.Message)
		}
	}
}

// dragValue returns the seq-th target value of a client. Consecutive values
// always differ and are never the initial value 0.
func dragValue(clientID, seq int) int {
	return (clientID+seq)%(sliderMax-1) + 1
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

type serverCounters struct {
	ValuesRelayed    float64 `json:"values_relayed"`
	MessagesDropped  float64 `json:"messages_dropped"`
	MessagesReceived float64 `json:"messages_received"`
}

func gatherServerCounters(g prometheus.Gatherer) (serverCounters, error) {
	families, err := g.Gather()
	if err != nil {
		return serverCounters{}, err
	}
	var out serverCounters
	for _, mf := range families {
		var total float64
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		switch mf.GetName() {
		case "sliderbind_values_relayed_total":
			out.ValuesRelayed = total
		case "sliderbind_messages_dropped_total":
			out.MessagesDropped = total
		case "sliderbind_messages_received_total":
			out.MessagesReceived = total
		}
	}
	return out, nil
}
