package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"carely/internal/model"
	"carely/internal/rag"
)

type fakeDocStore struct {
	nextID uint
	docs   map[uint]*model.Document
}

func newFakeDocStore() *fakeDocStore {
	return &fakeDocStore{docs: make(map[uint]*model.Document)}
}

func (f *fakeDocStore) Create(doc *model.Document) error {
	f.nextID++
	doc.ID = f.nextID
	cp := *doc
	f.docs[doc.ID] = &cp
	return nil
}

func (f *fakeDocStore) GetByCompanyAndPath(companyID uint, sourcePath string) (*model.Document, error) {
	for _, d := range f.docs {
		if d.CompanyID == companyID && d.SourcePath == sourcePath {
			cp := *d
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeDocStore) GetByIDAndCompany(id, companyID uint) (*model.Document, error) {
	d, ok := f.docs[id]
	if !ok || d.CompanyID != companyID {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDocStore) ListByCompany(companyID uint) ([]model.Document, error) {
	var out []model.Document
	for id := uint(1); id <= f.nextID; id++ {
		if d, ok := f.docs[id]; ok && d.CompanyID == companyID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDocStore) MarkCompleted(id uint, totalPages, totalChunks int) error {
	d, ok := f.docs[id]
	if !ok {
		return errors.New("no such document")
	}
	d.Status = model.DocumentStatusCompleted
	d.TotalPages = totalPages
	d.TotalChunks = totalChunks
	return nil
}

func (f *fakeDocStore) MarkFailed(id uint, message string) error {
	d, ok := f.docs[id]
	if !ok {
		return errors.New("no such document")
	}
	d.Status = model.DocumentStatusFailed
	d.ErrorMessage = message
	return nil
}

func (f *fakeDocStore) Delete(id uint) error {
	delete(f.docs, id)
	return nil
}

func (f *fakeDocStore) DeleteByCompany(companyID uint) error {
	for id, d := range f.docs {
		if d.CompanyID == companyID {
			delete(f.docs, id)
		}
	}
	return nil
}

type fakeChunkStore struct {
	chunks []model.Chunk
}

func (f *fakeChunkStore) CreateBatch(chunks []model.Chunk) error {
	f.chunks = append(f.chunks, chunks...)
	return nil
}

func (f *fakeChunkStore) ListByCompany(companyID uint) ([]model.Chunk, error) {
	var out []model.Chunk
	for _, c := range f.chunks {
		if c.CompanyID == companyID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeChunkStore) DeleteByDocument(documentID uint) (int64, error) {
	var kept []model.Chunk
	var removed int64
	for _, c := range f.chunks {
		if c.DocumentID == documentID {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	f.chunks = kept
	return removed, nil
}

func (f *fakeChunkStore) DeleteByCompany(companyID uint) error {
	var kept []model.Chunk
	for _, c := range f.chunks {
		if c.CompanyID != companyID {
			kept = append(kept, c)
		}
	}
	f.chunks = kept
	return nil
}

type fakePageLoader struct {
	pages map[string][]string
	err   error
}

func (f *fakePageLoader) LoadPages(path string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pages[path], nil
}

type stubEmbedder struct {
	err   error
	calls int
}

func (s *stubEmbedder) vector(text string) []float32 {
	var sum float32
	for _, r := range text {
		sum += float32(r)
	}
	return []float32{sum, float32(len(text)), 1}
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.vector(text), nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = s.vector(t)
	}
	return out, nil
}

func newTestDocumentService(t *testing.T, loader PageLoader, embedder rag.Embedder) (*DocumentService, *fakeDocStore, *fakeChunkStore, *IndexRegistry) {
	t.Helper()
	docs := newFakeDocStore()
	chunks := &fakeChunkStore{}
	registry := NewIndexRegistry(rag.NewIndexStore(t.TempDir()))
	svc := NewDocumentService(docs, chunks, loader, embedder, registry, 1000, 200)
	return svc, docs, chunks, registry
}

func TestUploadProcessesDocument(t *testing.T) {
	loader := &fakePageLoader{pages: map[string][]string{
		"/tmp/guide.pdf": {"We ship worldwide within five days.", "Returns are free for thirty days."},
	}}
	svc, docs, chunks, registry := newTestDocumentService(t, loader, &stubEmbedder{})

	res, err := svc.Upload(context.Background(), 1, "/tmp/guide.pdf", "guide.pdf")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %q", res.Message)
	}
	if res.Document.Status != model.DocumentStatusCompleted {
		t.Fatalf("status = %q, want completed", res.Document.Status)
	}
	if res.Document.TotalPages != 2 {
		t.Fatalf("TotalPages = %d, want 2", res.Document.TotalPages)
	}

	stored, _ := docs.GetByIDAndCompany(res.Document.ID, 1)
	if stored.Status != model.DocumentStatusCompleted {
		t.Fatalf("persisted status = %q, want completed", stored.Status)
	}

	persisted, _ := chunks.ListByCompany(1)
	if len(persisted) != 2 {
		t.Fatalf("chunk count = %d, want 2", len(persisted))
	}
	if persisted[0].PageNumber != 1 || persisted[1].PageNumber != 2 {
		t.Fatalf("page numbers = %d,%d, want 1,2", persisted[0].PageNumber, persisted[1].PageNumber)
	}
	if persisted[0].ChunkID != fmt.Sprintf("%d_chunk_0", res.Document.ID) {
		t.Fatalf("chunk id = %q", persisted[0].ChunkID)
	}

	if !registry.Ready(1) {
		t.Fatal("expected index to exist after upload")
	}
	idx, err := registry.Index(1)
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if idx.Len() != 2 {
		t.Fatalf("index size = %d, want 2", idx.Len())
	}
}

func TestUploadIsIdempotentPerPath(t *testing.T) {
	loader := &fakePageLoader{pages: map[string][]string{"/tmp/a.pdf": {"hello support world"}}}
	embedder := &stubEmbedder{}
	svc, _, chunks, _ := newTestDocumentService(t, loader, embedder)

	first, err := svc.Upload(context.Background(), 1, "/tmp/a.pdf", "a.pdf")
	if err != nil {
		t.Fatalf("first Upload: %v", err)
	}
	second, err := svc.Upload(context.Background(), 1, "/tmp/a.pdf", "a.pdf")
	if err != nil {
		t.Fatalf("second Upload: %v", err)
	}

	if !second.Success || !second.AlreadyProcessed {
		t.Fatalf("second upload = %+v, want already-processed success", second)
	}
	if second.Document.ID != first.Document.ID {
		t.Fatalf("second upload returned document %d, want %d", second.Document.ID, first.Document.ID)
	}
	if embedder.calls != 1 {
		t.Fatalf("embedder called %d times, want 1", embedder.calls)
	}
	persisted, _ := chunks.ListByCompany(1)
	if len(persisted) != 1 {
		t.Fatalf("chunk count = %d, want 1", len(persisted))
	}
}

func TestUploadEmptyDocumentFails(t *testing.T) {
	loader := &fakePageLoader{pages: map[string][]string{"/tmp/blank.pdf": {"", "   "}}}
	svc, docs, chunks, registry := newTestDocumentService(t, loader, &stubEmbedder{})

	res, err := svc.Upload(context.Background(), 1, "/tmp/blank.pdf", "blank.pdf")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if res.Success {
		t.Fatal("expected failure for empty document")
	}
	if !strings.Contains(res.Message, "no extractable text") {
		t.Fatalf("message = %q", res.Message)
	}

	stored, _ := docs.GetByIDAndCompany(res.Document.ID, 1)
	if stored.Status != model.DocumentStatusFailed {
		t.Fatalf("status = %q, want failed", stored.Status)
	}
	persisted, _ := chunks.ListByCompany(1)
	if len(persisted) != 0 {
		t.Fatalf("chunk count = %d, want 0", len(persisted))
	}
	if registry.Ready(1) {
		t.Fatal("no index should exist for a failed upload")
	}
}

func TestUploadEmbedderFailureMarksFailed(t *testing.T) {
	loader := &fakePageLoader{pages: map[string][]string{"/tmp/x.pdf": {"some page text"}}}
	svc, docs, chunks, _ := newTestDocumentService(t, loader, &stubEmbedder{err: errors.New("upstream down")})

	res, err := svc.Upload(context.Background(), 1, "/tmp/x.pdf", "x.pdf")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if res.Success {
		t.Fatal("expected failure")
	}
	stored, _ := docs.GetByIDAndCompany(res.Document.ID, 1)
	if stored.Status != model.DocumentStatusFailed {
		t.Fatalf("status = %q, want failed", stored.Status)
	}
	if stored.ErrorMessage == "" {
		t.Fatal("expected an error message on the record")
	}
	persisted, _ := chunks.ListByCompany(1)
	if len(persisted) != 0 {
		t.Fatalf("chunk count = %d, want 0", len(persisted))
	}
}

// flakyChunkStore persists part of the first batch before erroring, the way
// a batched insert can land partially before the connection drops.
type flakyChunkStore struct {
	fakeChunkStore
	failFirst bool
}

func (f *flakyChunkStore) CreateBatch(chunks []model.Chunk) error {
	if f.failFirst {
		f.failFirst = false
		if len(chunks) > 0 {
			f.chunks = append(f.chunks, chunks[0])
		}
		return errors.New("connection reset during insert")
	}
	return f.fakeChunkStore.CreateBatch(chunks)
}

func TestUploadPartialChunkPersistRollsBack(t *testing.T) {
	loader := &fakePageLoader{pages: map[string][]string{
		"/tmp/bad.pdf":  {"alpha policy text"},
		"/tmp/good.pdf": {"beta policy text"},
	}}
	docs := newFakeDocStore()
	chunks := &flakyChunkStore{failFirst: true}
	registry := NewIndexRegistry(rag.NewIndexStore(t.TempDir()))
	embedder := &stubEmbedder{}
	svc := NewDocumentService(docs, chunks, loader, embedder, registry, 1000, 200)
	ctx := context.Background()

	res, err := svc.Upload(ctx, 1, "/tmp/bad.pdf", "bad.pdf")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if res.Success {
		t.Fatal("expected failure when chunk persistence errors")
	}
	stored, _ := docs.GetByIDAndCompany(res.Document.ID, 1)
	if stored.Status != model.DocumentStatusFailed {
		t.Fatalf("status = %q, want failed", stored.Status)
	}
	if persisted, _ := chunks.ListByCompany(1); len(persisted) != 0 {
		t.Fatalf("chunk count after failed upload = %d, want 0", len(persisted))
	}

	// a later upload rebuilds the index from the company's chunk store; the
	// failed document's text must not come back through it
	res2, err := svc.Upload(ctx, 1, "/tmp/good.pdf", "good.pdf")
	if err != nil || !res2.Success {
		t.Fatalf("second upload = %+v, %v", res2, err)
	}
	idx, err := registry.Index(1)
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if idx.Len() != 1 {
		t.Fatalf("index size = %d, want 1", idx.Len())
	}
	for _, r := range idx.Search(embedder.vector("alpha policy text"), 10) {
		if r.Entry.Text == "alpha policy text" {
			t.Fatal("index serves text from a failed document")
		}
	}
}

func TestDeleteRebuildsIndexFromRemainingChunks(t *testing.T) {
	loader := &fakePageLoader{pages: map[string][]string{
		"/tmp/a.pdf": {"first document text"},
		"/tmp/b.pdf": {"second document text"},
	}}
	svc, docs, chunks, registry := newTestDocumentService(t, loader, &stubEmbedder{})
	ctx := context.Background()

	resA, _ := svc.Upload(ctx, 1, "/tmp/a.pdf", "a.pdf")
	resB, _ := svc.Upload(ctx, 1, "/tmp/b.pdf", "b.pdf")

	del, err := svc.Delete(ctx, 1, resA.Document.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if del.RemovedChunks != 1 || del.RemainingChunks != 1 {
		t.Fatalf("delete result = %+v", del)
	}

	if d, _ := docs.GetByIDAndCompany(resA.Document.ID, 1); d != nil {
		t.Fatal("deleted document still present")
	}
	remaining, _ := chunks.ListByCompany(1)
	if len(remaining) != 1 || remaining[0].DocumentID != resB.Document.ID {
		t.Fatalf("remaining chunks = %+v", remaining)
	}

	idx, err := registry.Index(1)
	if err != nil {
		t.Fatalf("Index after delete: %v", err)
	}
	if idx.Len() != 1 {
		t.Fatalf("index size = %d, want 1", idx.Len())
	}
}

func TestDeleteLastDocumentDropsIndex(t *testing.T) {
	loader := &fakePageLoader{pages: map[string][]string{"/tmp/a.pdf": {"only document"}}}
	svc, _, _, registry := newTestDocumentService(t, loader, &stubEmbedder{})
	ctx := context.Background()

	res, _ := svc.Upload(ctx, 1, "/tmp/a.pdf", "a.pdf")
	if _, err := svc.Delete(ctx, 1, res.Document.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if registry.Ready(1) {
		t.Fatal("index should be gone after last document is deleted")
	}
	if _, err := registry.Index(1); !errors.Is(err, rag.ErrIndexNotFound) {
		t.Fatalf("Index err = %v, want ErrIndexNotFound", err)
	}
}

func TestDeleteUnknownDocument(t *testing.T) {
	svc, _, _, _ := newTestDocumentService(t, &fakePageLoader{}, &stubEmbedder{})
	if _, err := svc.Delete(context.Background(), 1, 42); !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("err = %v, want ErrDocumentNotFound", err)
	}
}

func TestDeleteIsScopedToCompany(t *testing.T) {
	loader := &fakePageLoader{pages: map[string][]string{"/tmp/a.pdf": {"tenant one text"}}}
	svc, _, _, _ := newTestDocumentService(t, loader, &stubEmbedder{})
	ctx := context.Background()

	res, _ := svc.Upload(ctx, 1, "/tmp/a.pdf", "a.pdf")
	if _, err := svc.Delete(ctx, 2, res.Document.ID); !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("cross-company delete err = %v, want ErrDocumentNotFound", err)
	}
}

func TestUploadKeepsTenantsSeparate(t *testing.T) {
	loader := &fakePageLoader{pages: map[string][]string{
		"/tmp/one.pdf": {"tenant one knowledge"},
		"/tmp/two.pdf": {"tenant two knowledge"},
	}}
	svc, _, _, registry := newTestDocumentService(t, loader, &stubEmbedder{})
	ctx := context.Background()

	res1, _ := svc.Upload(ctx, 1, "/tmp/one.pdf", "one.pdf")
	if _, err := svc.Upload(ctx, 2, "/tmp/two.pdf", "two.pdf"); err != nil {
		t.Fatalf("Upload tenant 2: %v", err)
	}

	if _, err := svc.Delete(ctx, 1, res1.Document.ID); err != nil {
		t.Fatalf("Delete tenant 1: %v", err)
	}
	if registry.Ready(1) {
		t.Fatal("tenant 1 index should be gone")
	}
	if !registry.Ready(2) {
		t.Fatal("tenant 2 index should be untouched")
	}
}

func TestStatusSummarizesDocuments(t *testing.T) {
	loader := &fakePageLoader{pages: map[string][]string{
		"/tmp/good.pdf": {"fine text"},
		"/tmp/bad.pdf":  {""},
	}}
	svc, _, _, _ := newTestDocumentService(t, loader, &stubEmbedder{})
	ctx := context.Background()

	svc.Upload(ctx, 1, "/tmp/good.pdf", "good.pdf")
	svc.Upload(ctx, 1, "/tmp/bad.pdf", "bad.pdf")

	st, err := svc.Status(ctx, 1)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.TotalDocuments != 2 || st.CompletedCount != 1 || st.FailedCount != 1 {
		t.Fatalf("status = %+v", st)
	}
	if !st.Ready || !st.IndexReady {
		t.Fatalf("expected ready knowledge base, got %+v", st)
	}

	ready, err := svc.Ready(ctx, 1)
	if err != nil || !ready {
		t.Fatalf("Ready = %v, %v; want true, nil", ready, err)
	}
}

func TestPurgeRemovesEverything(t *testing.T) {
	loader := &fakePageLoader{pages: map[string][]string{"/tmp/a.pdf": {"some text"}}}
	svc, docs, chunks, registry := newTestDocumentService(t, loader, &stubEmbedder{})
	ctx := context.Background()

	svc.Upload(ctx, 1, "/tmp/a.pdf", "a.pdf")
	if err := svc.Purge(ctx, 1); err != nil {
		t.Fatalf("Purge: %v", err)
	}

	if list, _ := docs.ListByCompany(1); len(list) != 0 {
		t.Fatalf("documents remain: %+v", list)
	}
	if list, _ := chunks.ListByCompany(1); len(list) != 0 {
		t.Fatalf("chunks remain: %+v", list)
	}
	if registry.Ready(1) {
		t.Fatal("index remains after purge")
	}
}
