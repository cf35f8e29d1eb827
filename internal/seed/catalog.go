package seed

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"vinoteca/internal/models"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

//go:embed wines.yaml
var wineCatalog []byte

// catalogNamespace scopes the deterministic ids of catalog wines.
var catalogNamespace = uuid.MustParse("6f1b8a52-4c1e-4c55-9d2e-0b7f3e8f6a10")

// Catalog parses the embedded wine list. Ids derive from name and vintage so
// re-seeding finds the same rows.
func Catalog() ([]models.Wine, error) {
	return parseCatalog(wineCatalog)
}

func parseCatalog(raw []byte) ([]models.Wine, error) {
	var wines []models.Wine
	if err := yaml.Unmarshal(raw, &wines); err != nil {
		return nil, fmt.Errorf("parse wine catalog: %w", err)
	}
	for i := range wines {
		if strings.TrimSpace(wines[i].Name) == "" {
			return nil, fmt.Errorf("wine catalog entry %d has no name", i)
		}
		wines[i].ID = catalogID(wines[i])
	}
	return wines, nil
}

func catalogID(w models.Wine) string {
	return uuid.NewSHA1(catalogNamespace, []byte(w.Name+"|"+strconv.Itoa(w.Year))).String()
}
