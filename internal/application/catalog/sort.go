package catalog

import (
	"sort"
	"strings"

	"github.com/jhoicas/ventas-api/internal/domain/entity"
)

// sortByName ordena por nombre sin distinguir mayúsculas; ID como desempate.
func sortByName[R entity.Record](list []R, name func(R) string) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := strings.ToLower(name(list[i])), strings.ToLower(name(list[j]))
		if a != b {
			return a < b
		}
		return list[i].Base().ID < list[j].Base().ID
	})
}
