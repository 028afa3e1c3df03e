package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"carely/internal/model"
	"carely/internal/pkg/pdfextract"
	"carely/internal/rag"
)

var ErrDocumentNotFound = errors.New("document not found")

// DocumentStore is the document metadata persistence the service needs.
type DocumentStore interface {
	Create(doc *model.Document) error
	GetByCompanyAndPath(companyID uint, sourcePath string) (*model.Document, error)
	GetByIDAndCompany(id, companyID uint) (*model.Document, error)
	ListByCompany(companyID uint) ([]model.Document, error)
	MarkCompleted(id uint, totalPages, totalChunks int) error
	MarkFailed(id uint, message string) error
	Delete(id uint) error
	DeleteByCompany(companyID uint) error
}

// ChunkStore is the chunk persistence the service needs.
type ChunkStore interface {
	CreateBatch(chunks []model.Chunk) error
	ListByCompany(companyID uint) ([]model.Chunk, error)
	DeleteByDocument(documentID uint) (int64, error)
	DeleteByCompany(companyID uint) error
}

// PageLoader extracts per-page text from an uploaded file.
type PageLoader interface {
	LoadPages(path string) ([]string, error)
}

// PDFPageLoader reads pages from PDF files on disk.
type PDFPageLoader struct{}

func (PDFPageLoader) LoadPages(path string) ([]string, error) {
	return pdfextract.ExtractPages(path)
}

// UploadResult reports the outcome of processing one document. Processing
// failures are recorded here rather than returned as errors, because a bad
// document is a normal condition the caller should present to the tenant.
type UploadResult struct {
	Success          bool            `json:"success"`
	AlreadyProcessed bool            `json:"already_processed"`
	Message          string          `json:"message"`
	Document         *model.Document `json:"document,omitempty"`
}

type DeleteResult struct {
	RemovedChunks   int64 `json:"removed_chunks"`
	RemainingChunks int   `json:"remaining_chunks"`
}

// KnowledgeBaseStatus is a per-company health summary of the document store.
type KnowledgeBaseStatus struct {
	CompanyID       uint             `json:"company_id"`
	Ready           bool             `json:"ready"`
	IndexReady      bool             `json:"index_ready"`
	TotalDocuments  int              `json:"total_documents"`
	CompletedCount  int              `json:"completed_count"`
	ProcessingCount int              `json:"processing_count"`
	FailedCount     int              `json:"failed_count"`
	TotalChunks     int              `json:"total_chunks"`
	Documents       []model.Document `json:"documents"`
}

// DocumentService owns the document lifecycle: ingest, chunk, embed, index,
// delete. All mutations for one company are serialized with a per-company
// lock so concurrent uploads cannot interleave index rebuilds.
type DocumentService struct {
	docs     DocumentStore
	chunks   ChunkStore
	loader   PageLoader
	embedder rag.Embedder
	indexes  *IndexRegistry

	chunkSize    int
	chunkOverlap int

	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func NewDocumentService(docs DocumentStore, chunks ChunkStore, loader PageLoader, embedder rag.Embedder, indexes *IndexRegistry, chunkSize, chunkOverlap int) *DocumentService {
	if chunkSize <= 0 {
		chunkSize = rag.DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = rag.DefaultChunkOverlap
	}
	return &DocumentService{
		docs:         docs,
		chunks:       chunks,
		loader:       loader,
		embedder:     embedder,
		indexes:      indexes,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		locks:        make(map[uint]*sync.Mutex),
	}
}

func (s *DocumentService) companyLock(companyID uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[companyID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[companyID] = l
	}
	return l
}

// Upload runs the full ingestion pipeline for one file. Re-uploading a path
// that was already processed for the company is a no-op reporting success.
func (s *DocumentService) Upload(ctx context.Context, companyID uint, sourcePath, displayName string) (*UploadResult, error) {
	if companyID == 0 || strings.TrimSpace(sourcePath) == "" {
		return nil, ErrInvalidInput
	}
	if displayName == "" {
		displayName = sourcePath
	}

	lock := s.companyLock(companyID)
	lock.Lock()
	defer lock.Unlock()

	existing, err := s.docs.GetByCompanyAndPath(companyID, sourcePath)
	if err != nil {
		return nil, fmt.Errorf("look up document: %w", err)
	}
	if existing != nil {
		return &UploadResult{
			Success:          true,
			AlreadyProcessed: true,
			Message:          "document already processed",
			Document:         existing,
		}, nil
	}

	doc := &model.Document{
		CompanyID:    companyID,
		SourcePath:   sourcePath,
		DisplayName:  displayName,
		Status:       model.DocumentStatusProcessing,
		ChunkSize:    s.chunkSize,
		ChunkOverlap: s.chunkOverlap,
	}
	if err := s.docs.Create(doc); err != nil {
		return nil, fmt.Errorf("create document record: %w", err)
	}

	pages, err := s.loader.LoadPages(sourcePath)
	if err != nil {
		return s.fail(doc, fmt.Sprintf("extract text: %v", err)), nil
	}

	var (
		texts    []string
		pageNums []int
	)
	for pi, page := range pages {
		for _, piece := range rag.Split(page, s.chunkSize, s.chunkOverlap) {
			texts = append(texts, piece)
			pageNums = append(pageNums, pi+1)
		}
	}
	if len(texts) == 0 {
		return s.fail(doc, "no extractable text in document"), nil
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return s.fail(doc, fmt.Sprintf("embed chunks: %v", err)), nil
	}
	if len(vectors) != len(texts) {
		return s.fail(doc, fmt.Sprintf("embedding count mismatch: %d texts, %d vectors", len(texts), len(vectors))), nil
	}

	rows := make([]model.Chunk, len(texts))
	for i := range texts {
		rows[i] = model.Chunk{
			CompanyID:  companyID,
			DocumentID: doc.ID,
			ChunkID:    fmt.Sprintf("%d_chunk_%d", doc.ID, i),
			ChunkIndex: i,
			PageNumber: pageNums[i],
			Content:    texts[i],
		}
		rows[i].SetEmbedding(vectors[i])
	}
	if err := s.chunks.CreateBatch(rows); err != nil {
		// batched inserts can land partially before erroring; a failed
		// document must leave no chunks behind for later rebuilds to pick up
		if _, derr := s.chunks.DeleteByDocument(doc.ID); derr != nil {
			log.Printf("document %d: roll back chunks: %v", doc.ID, derr)
		}
		return s.fail(doc, fmt.Sprintf("persist chunks: %v", err)), nil
	}

	all, err := s.chunks.ListByCompany(companyID)
	if err != nil {
		if _, derr := s.chunks.DeleteByDocument(doc.ID); derr != nil {
			log.Printf("document %d: roll back chunks: %v", doc.ID, derr)
		}
		return s.fail(doc, fmt.Sprintf("load company chunks: %v", err)), nil
	}
	if err := s.indexes.Rebuild(companyID, entriesFromChunks(all)); err != nil {
		if _, derr := s.chunks.DeleteByDocument(doc.ID); derr != nil {
			log.Printf("document %d: roll back chunks: %v", doc.ID, derr)
		}
		return s.fail(doc, fmt.Sprintf("rebuild index: %v", err)), nil
	}

	if err := s.docs.MarkCompleted(doc.ID, len(pages), len(texts)); err != nil {
		return nil, fmt.Errorf("mark document completed: %w", err)
	}
	doc.Status = model.DocumentStatusCompleted
	doc.TotalPages = len(pages)
	doc.TotalChunks = len(texts)

	log.Printf("company %d: processed document %d (%d pages, %d chunks)", companyID, doc.ID, len(pages), len(texts))
	return &UploadResult{
		Success:  true,
		Message:  fmt.Sprintf("processed %d pages into %d chunks", len(pages), len(texts)),
		Document: doc,
	}, nil
}

func (s *DocumentService) fail(doc *model.Document, msg string) *UploadResult {
	log.Printf("company %d: document %d failed: %s", doc.CompanyID, doc.ID, msg)
	if err := s.docs.MarkFailed(doc.ID, msg); err != nil {
		log.Printf("document %d: mark failed: %v", doc.ID, err)
	}
	doc.Status = model.DocumentStatusFailed
	doc.ErrorMessage = msg
	return &UploadResult{Success: false, Message: msg, Document: doc}
}

// Delete removes one document, its chunks, and rebuilds the company index
// from whatever chunks remain. The last document takes the index with it.
func (s *DocumentService) Delete(ctx context.Context, companyID, documentID uint) (*DeleteResult, error) {
	if companyID == 0 || documentID == 0 {
		return nil, ErrInvalidInput
	}

	lock := s.companyLock(companyID)
	lock.Lock()
	defer lock.Unlock()

	doc, err := s.docs.GetByIDAndCompany(documentID, companyID)
	if err != nil {
		return nil, fmt.Errorf("look up document: %w", err)
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}

	removed, err := s.chunks.DeleteByDocument(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("delete chunks: %w", err)
	}
	if err := s.docs.Delete(doc.ID); err != nil {
		return nil, fmt.Errorf("delete document record: %w", err)
	}

	remaining, err := s.chunks.ListByCompany(companyID)
	if err != nil {
		return nil, fmt.Errorf("load remaining chunks: %w", err)
	}
	if err := s.indexes.Rebuild(companyID, entriesFromChunks(remaining)); err != nil {
		return nil, err
	}

	if doc.SourcePath != "" {
		if err := os.Remove(doc.SourcePath); err != nil && !os.IsNotExist(err) {
			log.Printf("company %d: remove file %s: %v", companyID, doc.SourcePath, err)
		}
	}

	log.Printf("company %d: deleted document %d (%d chunks removed, %d remain)", companyID, documentID, removed, len(remaining))
	return &DeleteResult{RemovedChunks: removed, RemainingChunks: len(remaining)}, nil
}

// List returns the company's documents, newest first.
func (s *DocumentService) List(ctx context.Context, companyID uint) ([]model.Document, error) {
	if companyID == 0 {
		return nil, ErrInvalidInput
	}
	return s.docs.ListByCompany(companyID)
}

// Ready reports whether the company has at least one completed document.
func (s *DocumentService) Ready(ctx context.Context, companyID uint) (bool, error) {
	docs, err := s.docs.ListByCompany(companyID)
	if err != nil {
		return false, err
	}
	for _, d := range docs {
		if d.Status == model.DocumentStatusCompleted {
			return true, nil
		}
	}
	return false, nil
}

// Status summarizes the company's knowledge base for a health view.
func (s *DocumentService) Status(ctx context.Context, companyID uint) (*KnowledgeBaseStatus, error) {
	if companyID == 0 {
		return nil, ErrInvalidInput
	}
	docs, err := s.docs.ListByCompany(companyID)
	if err != nil {
		return nil, err
	}

	st := &KnowledgeBaseStatus{
		CompanyID:      companyID,
		IndexReady:     s.indexes.Ready(companyID),
		TotalDocuments: len(docs),
		Documents:      docs,
	}
	for _, d := range docs {
		switch d.Status {
		case model.DocumentStatusCompleted:
			st.CompletedCount++
			st.TotalChunks += d.TotalChunks
		case model.DocumentStatusProcessing:
			st.ProcessingCount++
		case model.DocumentStatusFailed:
			st.FailedCount++
		}
	}
	st.Ready = st.CompletedCount > 0 && st.IndexReady
	return st, nil
}

// Purge removes every document, chunk, and the index for a company. Used when
// a tenant wipes their account data.
func (s *DocumentService) Purge(ctx context.Context, companyID uint) error {
	if companyID == 0 {
		return ErrInvalidInput
	}

	lock := s.companyLock(companyID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.chunks.DeleteByCompany(companyID); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	if err := s.docs.DeleteByCompany(companyID); err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}
	if err := s.indexes.Drop(companyID); err != nil {
		return err
	}
	log.Printf("company %d: purged knowledge base", companyID)
	return nil
}

func entriesFromChunks(chunks []model.Chunk) []rag.Entry {
	entries := make([]rag.Entry, 0, len(chunks))
	for i := range chunks {
		vec := chunks[i].EmbeddingVector()
		if len(vec) == 0 {
			continue
		}
		entries = append(entries, rag.Entry{
			ChunkID:    chunks[i].ChunkID,
			DocumentID: chunks[i].DocumentID,
			PageNumber: chunks[i].PageNumber,
			Text:       chunks[i].Content,
			Vector:     vec,
		})
	}
	return entries
}
