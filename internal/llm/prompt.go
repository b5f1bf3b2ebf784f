package llm

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/estate-toolkit/internal/extract"
)

// BuildSystemPrompt composes the instruction block: field list, structure
// classes, coordinate rules and the response JSON Schema.
func BuildSystemPrompt(now time.Time) string {
	if now.IsZero() {
		now = time.Now()
	}
	year := strconv.Itoa(now.Year())

	parts := []string{
		"この不動産資料（画像またはPDFのページ画像）から、以下の情報を抽出してJSON形式で返してください。",
		"値が見つからない場合は null を返してください。0 で埋めないでください。",
		"",
		"planInfo の抽出項目:",
		"- landArea: 土地面積（数値のみ、㎡換算）",
		"- floorArea: 延床面積（数値のみ、㎡換算）",
		`- structure: 建物構造。"木造", "軽量鉄骨造", "重量鉄骨造", "RC造・SRC造" のいずれかに分類`,
		"  (木造・W造 -> 木造 / 軽量鉄骨 -> 軽量鉄骨造 / 重量鉄骨・S造 -> 重量鉄骨造 / RC・SRC・鉄筋コンクリート -> RC造・SRC造)",
		"- address: 所在地",
		"- roadPrice: 路線価（円/㎡、記載があれば）",
		"- age: 築年数。建築年（昭和xx年、YYYY年など）のみ記載の場合は " + year + " 年時点の築年数を計算",
		"- fixedTaxValue: 土地の固定資産税評価額",
		"- landFixedAssetTax / landCityPlanningTax: 土地の固定資産税・都市計画税（年額）",
		"- buildingFixedAssetTax / buildingCityPlanningTax: 建物の固定資産税・都市計画税（年額）",
		"",
		"address_candidates: 住所の候補（最大3つ、確度が高い順）。見つからない場合は []。",
		"",
		"coordinates: 各項目の値が書かれている位置を {\"box\": [ymin, xmin, ymax, xmax], \"page\": ページ番号} で返してください。",
		"- 座標は各ページ画像を 0-1000 に正規化した値です。",
		"- ラベルではなく値の文字列を囲んでください。",
		"- 見つからない項目は null。",
		"",
		"JSON 以外の文字を出力しないでください。JSON Schema:",
		mustJSON(extract.BuildResponseSchema()),
	}
	return strings.Join(parts, "\n")
}

// BuildUserPrompt describes the attached pages.
func BuildUserPrompt(req ExtractRequest) string {
	var b strings.Builder
	if name := strings.TrimSpace(req.FilenameHint); name != "" {
		b.WriteString("ファイル名: ")
		b.WriteString(name)
		b.WriteString("\n")
	}
	b.WriteString("添付ページ数: ")
	b.WriteString(strconv.Itoa(len(req.Pages)))
	b.WriteString("（添付順に page 1 から）\n")
	b.WriteString("Response は JSON のみ。")
	return b.String()
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
