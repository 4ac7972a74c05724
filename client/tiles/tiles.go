package tiles

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Key identifica um tile: uma página do grid de uma matriz.
type Key struct {
	Matrix string
	Page   int
}

func (k Key) String() string {
	return k.Matrix + ":" + strconv.Itoa(k.Page)
}

// ParseKey desfaz Key.String. O nome da matriz pode conter ':'; a página é
// sempre o último segmento.
func ParseKey(s string) (Key, bool) {
	i := strings.LastIndex(s, ":")
	if i < 0 {
		return Key{}, false
	}
	page, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return Key{}, false
	}
	return Key{Matrix: s[:i], Page: page}, true
}

// Tile é uma página cacheada do grid.
type Tile struct {
	Key Key

	// Entities são os IDs (documentos, células, perguntas) cujo conteúdo o
	// tile exibe. É por eles que a invalidação encontra as páginas afetadas.
	Entities []string

	// Payload é o corpo opaco da página (o cache não interpreta).
	Payload []byte

	FetchedAt time.Time
}

// Cache é a estratégia de armazenamento dos tiles.
//
// Implementações podem armazenar em memória, Redis, etc.
type Cache interface {
	Get(ctx context.Context, key Key) (Tile, bool, error)
	Put(ctx context.Context, tile Tile) error
	Drop(ctx context.Context, keys ...Key) error

	// InvalidateEntities derruba todo tile que referencia qualquer uma das
	// entidades alteradas e devolve as chaves derrubadas.
	InvalidateEntities(ctx context.Context, entities ...string) ([]Key, error)
}
