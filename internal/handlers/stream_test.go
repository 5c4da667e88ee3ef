package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"os"
	"testing"
	"time"

	"github.com/fasthttp/websocket"

	"github.com/codebuildervaibhav/audio-sentiment/internal/types"
)

type frame struct {
	kind int
	data []byte
}

type streamedClip struct {
	clip types.Clip
	data []byte
}

// listen serves the app on a loopback port and returns its ws base URL.
func (s *testServer) listen(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go s.app.Listener(ln)
	t.Cleanup(func() { _ = s.app.Shutdown() })
	return "ws://" + ln.Addr().String()
}

func dialStream(t *testing.T, base string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(base+"/ws/analyze", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	return conn
}

func readReply(t *testing.T, conn *websocket.Conn) streamReply {
	t.Helper()
	messageType, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read reply: %v", err)
	}
	if messageType != websocket.TextMessage {
		t.Fatalf("expected a text frame, got type %d", messageType)
	}
	var reply streamReply
	if err := json.Unmarshal(data, &reply); err != nil {
		t.Fatalf("decode reply %s: %v", data, err)
	}
	return reply
}

func send(t *testing.T, conn *websocket.Conn, messageType int, data []byte) {
	t.Helper()
	if err := conn.WriteMessage(messageType, data); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestStreamAnalyzesClip(t *testing.T) {
	seen := make(chan streamedClip, 1)
	runner := runnerFunc(func(ctx context.Context, clip types.Clip) *types.AnalysisResult {
		data, _ := os.ReadFile(clip.Path)
		seen <- streamedClip{clip: clip, data: data}
		return echoRunner(nil)(ctx, clip)
	})
	s := newTestServer(t, runner, 5*time.Second)
	conn := dialStream(t, s.listen(t))

	send(t, conn, websocket.TextMessage, []byte("Review.mp3"))
	send(t, conn, websocket.BinaryMessage, []byte("ID3 "))
	send(t, conn, websocket.BinaryMessage, []byte("audio"))
	send(t, conn, websocket.TextMessage, []byte("END"))

	queued := readReply(t, conn)
	if queued.Status != "queued" || queued.JobID == "" || queued.Error != "" {
		t.Fatalf("unexpected first reply %+v", queued)
	}

	done := readReply(t, conn)
	if done.JobID != queued.JobID || done.Status != types.StatusCompleted {
		t.Fatalf("unexpected result reply %+v", done)
	}
	if done.Result == nil || done.Result.Label != types.LabelPositive {
		t.Fatalf("result reply should carry the analysis, got %+v", done.Result)
	}

	got := <-seen
	if got.clip.Filename != "Review.mp3" || got.clip.Source != types.SourceStream {
		t.Fatalf("unexpected clip %+v", got.clip)
	}
	if string(got.data) != "ID3 audio" {
		t.Fatalf("binary frames should be joined in order, got %q", got.data)
	}
	assertNoWorkspaces(t, s.tempDir)
}

func TestStreamRejections(t *testing.T) {
	cases := []struct {
		name     string
		frames   []frame
		wantCode string
	}{
		{
			name:     "empty",
			frames:   []frame{{websocket.TextMessage, []byte("END")}},
			wantCode: "ERR_NO_FILE",
		},
		{
			name: "too large",
			frames: []frame{
				{websocket.BinaryMessage, bytes.Repeat([]byte{0}, 600*1024)},
				{websocket.BinaryMessage, bytes.Repeat([]byte{0}, 600*1024)},
			},
			wantCode: "ERR_FILE_TOO_LARGE",
		},
		{
			name: "bad format",
			frames: []frame{
				{websocket.TextMessage, []byte("notes.txt")},
				{websocket.BinaryMessage, []byte("hello")},
				{websocket.TextMessage, []byte("END")},
			},
			wantCode: "ERR_REJECTED",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, echoRunner(nil), time.Second)
			conn := dialStream(t, s.listen(t))

			for _, f := range tc.frames {
				send(t, conn, f.kind, f.data)
			}
			reply := readReply(t, conn)
			if reply.Code != tc.wantCode || reply.Error == "" {
				t.Fatalf("expected %s, got %+v", tc.wantCode, reply)
			}
			assertNoWorkspaces(t, s.tempDir)
		})
	}
}
