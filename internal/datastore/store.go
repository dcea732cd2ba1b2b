package datastore

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"

	"github.com/iudanet/ristopoint/internal/models"
)

// Store владеет текущим документом сайта и его файлом на диске.
// Запись идет через единственный путь normalize -> temp file -> rename,
// поэтому читатель файла никогда не видит частично записанный документ.
// Конкурентные записи разрешаются по принципу last-write-wins: админка
// рассчитана на одного оператора, optimistic locking сознательно не
// добавлен.
type Store struct {
	logger  *slog.Logger
	path    string
	current models.Document
	mu      sync.RWMutex
	saveMu  sync.Mutex
}

// NewStore создает Store для файла path. До вызова Load текущий
// документ пуст.
func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{
		logger: logger,
		path:   path,
	}
}

// Load загружает документ с диска. Отсутствующий файл заменяется
// дефолтным документом, нечитаемый или битый файл перезаписывается
// дефолтом (self-healing: доступность важнее сохранения мусора).
func (s *Store) Load() error {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("data file unreadable, rewriting defaults",
				"path", s.path, "error", err)
		}
		_, err = s.Save(DefaultDocument())
		return err
	}

	var raw any
	if err := json.Unmarshal(payload, &raw); err != nil {
		s.logger.Warn("data file corrupted, rewriting defaults",
			"path", s.path, "error", err)
		_, err = s.Save(DefaultDocument())
		return err
	}

	s.mu.Lock()
	s.current = Normalize(raw)
	s.mu.Unlock()
	return nil
}

// Current возвращает копию текущего документа.
func (s *Store) Current() models.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneDocument(s.current)
}

// Save нормализует документ, атомарно сохраняет его на диск и только
// после успешного rename подменяет копию в памяти.
func (s *Store) Save(doc models.Document) (models.Document, error) {
	normalized := NormalizeDocument(doc)

	payload, err := json.MarshalIndent(normalized, "", "  ")
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to marshal document: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return models.Document{}, fmt.Errorf("failed to create data directory: %w", err)
	}

	// Писатели сериализуются целиком: temp-файл общий для всех Save,
	// и rename с подменой копии в памяти не должны перемежаться.
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, payload, 0o600); err != nil {
		return models.Document{}, fmt.Errorf("failed to write temp data file: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		return models.Document{}, fmt.Errorf("failed to replace data file: %w", err)
	}

	s.mu.Lock()
	s.current = normalized
	s.mu.Unlock()

	return cloneDocument(normalized), nil
}

// Reset сохраняет дефолтный документ, затирая текущий контент.
func (s *Store) Reset() (models.Document, error) {
	return s.Save(DefaultDocument())
}

// cloneDocument возвращает глубокую копию документа, чтобы вызывающие
// не могли изменить состояние Store через общие слайсы.
func cloneDocument(doc models.Document) models.Document {
	out := doc
	out.Regions = make([]models.Region, len(doc.Regions))
	for i, region := range doc.Regions {
		points := make([]models.Point, len(region.ActivePoints))
		for j, point := range region.ActivePoints {
			points[j] = point
			points[j].Services = append([]string(nil), point.Services...)
			points[j].Socials = append([]models.SocialLink(nil), point.Socials...)
		}
		out.Regions[i] = region
		out.Regions[i].ActivePoints = points
	}
	return out
}
