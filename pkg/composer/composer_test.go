package composer_test

import (
	"context"
	"io"
	"sync"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/visionbi/strand/pkg/api"
	"github.com/visionbi/strand/pkg/chat"
	"github.com/visionbi/strand/pkg/composer"
	"github.com/visionbi/strand/pkg/session"
)

func TestComposer(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Composer Suite")
}

const doneBlock = "event: done\n" +
	"data: {\"message_id\":42,\"meta\":{\"backend\":\"ollama\",\"model_id\":\"llama3\",\"temperature\":0.7,\"max_tokens\":2048}}\n\n"

func deltaBlock(text string) string {
	return "event: delta\ndata: {\"text\":\"" + text + "\"}\n\n"
}

// scriptedBody serves blocks pushed by the test and fails reads once the
// request context is cancelled, like a real aborted response body.
type scriptedBody struct {
	ctx    context.Context
	blocks <-chan string
	buf    []byte
}

func (b *scriptedBody) Read(p []byte) (int, error) {
	if len(b.buf) == 0 {
		select {
		case blk, ok := <-b.blocks:
			if !ok {
				return 0, io.EOF
			}
			b.buf = []byte(blk)
		case <-b.ctx.Done():
			return 0, b.ctx.Err()
		}
	}
	n := copy(p, b.buf)
	b.buf = b.buf[n:]
	return n, nil
}

func (b *scriptedBody) Close() error { return nil }

type fakeBackend struct {
	mu      sync.Mutex
	blocks  chan string
	calls   int
	lastReq api.ChatStreamRequest
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{blocks: make(chan string, 16)}
}

func (f *fakeBackend) StreamChat(ctx context.Context, req api.ChatStreamRequest) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastReq = req
	return &scriptedBody{ctx: ctx, blocks: f.blocks}, nil
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeBackend) request() api.ChatStreamRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastReq
}

// recorder captures notifications for assertions.
type recorder struct {
	mu        sync.Mutex
	failures  []string
	successes []string
}

func (r *recorder) Success(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, msg)
}

func (r *recorder) Failure(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, msg)
}

func (r *recorder) failureCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.failures)
}

var _ = Describe("Composer", func() {
	var (
		backend  *fakeBackend
		store    *chat.Store
		notifier *recorder
		comp     *composer.Composer
	)

	BeforeEach(func() {
		backend = newFakeBackend()
		store = chat.NewStore()
		notifier = &recorder{}
		comp = composer.New(session.NewController(backend, store), notifier)
	})

	Describe("Send preconditions", func() {
		It("rejects a send with no conversation selected", func() {
			comp.SetDraft("hello")
			Expect(comp.Send()).To(BeFalse())
			Expect(backend.callCount()).To(Equal(0))
		})

		It("rejects a send with an empty draft", func() {
			comp.SelectConversation(1, 3)
			comp.SetDraft("   ")
			Expect(comp.Send()).To(BeFalse())
			Expect(comp.State()).To(Equal(composer.StateIdle))
		})
	})

	Describe("a full turn", func() {
		BeforeEach(func() {
			comp.SelectConversation(1, 3)
			comp.SetDraft("Hello")
		})

		It("clears the draft and reflects the turn immediately on accept", func() {
			Expect(comp.Send()).To(BeTrue())
			Expect(comp.Draft()).To(BeEmpty())
			Expect(comp.State()).To(Equal(composer.StateStreaming))

			msgs := store.Messages(3)
			Expect(msgs).To(HaveLen(2))
			Expect(msgs[0].Role).To(Equal(chat.RoleUser))
			Expect(msgs[0].Content).To(Equal("Hello"))
			Expect(msgs[1].Role).To(Equal(chat.RoleAssistant))
			Expect(msgs[1].Open).To(BeTrue())

			comp.Stop()
		})

		It("returns to idle with the finalized message after done", func() {
			Expect(comp.Send()).To(BeTrue())

			backend.blocks <- deltaBlock("Hi")
			backend.blocks <- deltaBlock(" there")
			backend.blocks <- doneBlock
			comp.Wait()

			Expect(comp.State()).To(Equal(composer.StateIdle))

			msgs := store.Messages(3)
			Expect(msgs).To(HaveLen(2))
			Expect(msgs[1].Content).To(Equal("Hi there"))
			Expect(msgs[1].Meta).ToNot(BeNil())
			Expect(msgs[1].Meta.Backend).To(Equal("ollama"))

			_, open := store.OpenMessageID(3)
			Expect(open).To(BeFalse())
			Expect(notifier.failureCount()).To(Equal(0))
		})

		It("carries the generation parameters on the request", func() {
			comp.SetParams(composer.Params{Temperature: 0.4, MaxTokens: 512, ModelID: "llama3", UseRAG: true})
			Expect(comp.Send()).To(BeTrue())
			Eventually(backend.callCount).Should(Equal(1))

			req := backend.request()
			Expect(req.Temperature).To(Equal(0.4))
			Expect(req.MaxTokens).To(Equal(512))
			Expect(req.ModelID).To(Equal("llama3"))
			Expect(req.UseRAG).To(BeTrue())
			Expect(req.ConversationID).To(Equal(int64(3)))

			comp.Stop()
		})

		It("ignores send while a stream is active", func() {
			Expect(comp.Send()).To(BeTrue())
			Eventually(backend.callCount).Should(Equal(1))

			comp.SetDraft("second")
			Expect(comp.Send()).To(BeFalse())
			Expect(backend.callCount()).To(Equal(1))
			// The rejected draft is kept for when the composer is idle again.
			Expect(comp.Draft()).To(Equal("second"))

			comp.Stop()
		})
	})

	Describe("Stop", func() {
		It("is a no-op on an idle composer, repeatedly", func() {
			Expect(func() {
				comp.Stop()
				comp.Stop()
			}).ToNot(Panic())
			Expect(comp.State()).To(Equal(composer.StateIdle))
		})

		It("returns to idle immediately and keeps the partial reply without reporting an error", func() {
			comp.SelectConversation(1, 3)
			comp.SetDraft("Hello")
			Expect(comp.Send()).To(BeTrue())

			backend.blocks <- deltaBlock("Hi")
			Eventually(func() string {
				msgs := store.Messages(3)
				return msgs[len(msgs)-1].Content
			}).Should(Equal("Hi"))

			comp.Stop()
			Expect(comp.State()).To(Equal(composer.StateIdle))
			comp.Wait()

			msgs := store.Messages(3)
			Expect(msgs[1].Content).To(Equal("Hi"))
			Expect(msgs[1].Meta).To(BeNil())
			_, open := store.OpenMessageID(3)
			Expect(open).To(BeFalse())
			Expect(notifier.failureCount()).To(Equal(0))
		})
	})

	Describe("stream failure", func() {
		It("notifies once and keeps the partial reply", func() {
			comp.SelectConversation(1, 3)
			comp.SetDraft("Hello")
			Expect(comp.Send()).To(BeTrue())

			backend.blocks <- deltaBlock("par")
			close(backend.blocks) // stream ends before done
			comp.Wait()

			Expect(comp.State()).To(Equal(composer.StateIdle))
			Expect(notifier.failureCount()).To(Equal(1))

			msgs := store.Messages(3)
			Expect(msgs[1].Content).To(Equal("par"))
			Expect(msgs[1].Meta).To(BeNil())
		})
	})
})
