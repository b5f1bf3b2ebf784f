package extract

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/joseph-ayodele/estate-toolkit/constants"
)

// structureRules are checked in order; SRC descriptions mention 鉄骨 too, so
// concrete comes first and light steel before heavy.
var structureRules = []struct {
	needles []string
	class   constants.Structure
}{
	{[]string{"RC", "鉄筋コンクリート", "コンクリート"}, constants.StructureRC},
	{[]string{"軽量鉄骨", "軽量", "LGS"}, constants.StructureLightSteel},
	{[]string{"重量鉄骨", "鉄骨", "S造"}, constants.StructureHeavySteel},
	{[]string{"木造", "W造", "木"}, constants.StructureWood},
}

// NormalizeStructure maps a free-text structure description such as
// "鉄筋コンクリート造陸屋根" or "Ｗ造" onto one of the four structure classes.
func NormalizeStructure(s string) (string, bool) {
	folded := strings.ToUpper(norm.NFKC.String(strings.TrimSpace(s)))
	if folded == "" {
		return "", false
	}
	for _, rule := range structureRules {
		for _, n := range rule.needles {
			if strings.Contains(folded, n) {
				return string(rule.class), true
			}
		}
	}
	return "", false
}
