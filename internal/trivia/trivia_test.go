package trivia

import (
	"strings"
	"testing"

	"github.com/Corphon/LifeJourney/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestSampleProperties(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6}
	original := append([]int(nil), items...)

	for count := -1; count <= 8; count++ {
		got := Sample(items, count)

		want := count
		if want < 0 {
			want = 0
		}
		if want > len(items) {
			want = len(items)
		}
		require.Len(t, got, want, "count=%d", count)

		seen := map[int]bool{}
		for _, v := range got {
			assert.Contains(t, items, v)
			assert.False(t, seen[v], "重复元素 %d", v)
			seen[v] = true
		}
	}

	assert.Equal(t, original, items)
	assert.Empty(t, Sample([]string{}, 3))
}

func TestSampleAppendDoesNotTouchSource(t *testing.T) {
	items := []int{1, 2, 3}
	got := Sample(items, 2)
	_ = append(got, 99)
	assert.ElementsMatch(t, []int{1, 2, 3}, items)
}

func TestSanitizeChinese(t *testing.T) {
	cases := map[string]string{
		"5岁时就写下了第一批作品":       "写下了第一批作品",
		"1905年发表狭义相对论":        "发表狭义相对论",
		"公元前336年继承王位":         "继承王位",
		"26 岁那年创办了公司":         "创办了公司",
		"在科隆举行首次公开演出":         "在科隆举行首次公开演出",
		"   ":                   "",
	}
	for input, want := range cases {
		assert.Equal(t, want, Sanitize(input), input)
	}
}

func TestSanitizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"5岁时就写下了第一批作品，童年时期便在欧洲巡回演出。",
		"1905年，26岁时发表论文",
		"没有任何年份",
	}
	for _, input := range inputs {
		once := Sanitize(input)
		assert.Equal(t, once, Sanitize(once), input)
	}
}

func TestSanitizeEnglish(t *testing.T) {
	s := NewSanitizer(language.English)
	assert.Equal(t, "wrote his first symphony.", s.Sanitize("At age 8 wrote his first symphony."))
	assert.Equal(t, "published four papers", s.Sanitize("in 1905 published four papers"))
	assert.Equal(t, "published four papers", s.Sanitize("In 1905, published four papers"))
	assert.Equal(t, "was his miracle year", s.Sanitize("1666 was his miracle year"))

	// 没有年份语境的数字保留
	assert.Equal(t, "wrote 600 poems", s.Sanitize("wrote 600 poems"))
	assert.Equal(t, "ran 1500 meters in the final", s.Sanitize("ran 1500 meters in the final"))
}

const testDataset = `
stages:
  - name: 幼儿时期
    ageRange: 0-12岁
    facts:
      - person: 莫扎特
        age: 5
        year: 1761
        text: 5岁时就写下了第一批作品
        source: Britannica
      - person: 贝多芬
        age: 7
        year: 1778
        text: 7岁时在科隆举行首次公开演出
      - person: 毕加索
        age: 8
        year: 1889
        text: 8岁完成第一幅油画
      - person: 亚历山大
        age: 20
        year: "公元前336"
        text: 公元前336年继承王位
  - name: 少年时期
    ageRange: 13-24岁
    facts: []
`

func TestParseYAMLAcceptsMixedYears(t *testing.T) {
	store, err := Parse([]byte(testDataset), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())

	facts := store.Facts(0, models.DefaultStages)
	require.Len(t, facts, 4)
	assert.Equal(t, models.Year("1761"), facts[0].Year)
	assert.Equal(t, models.Year("公元前336"), facts[3].Year)
}

func TestFactsFallsBackToStageName(t *testing.T) {
	store, err := Parse([]byte(`{"stages":[{"name":"中年时期","ageRange":"37-50岁","facts":[{"person":"甲","text":"成就"}]}]}`), FormatJSON)
	require.NoError(t, err)

	assert.Len(t, store.Facts(3, models.DefaultStages), 1)
	assert.Empty(t, store.Facts(1, models.DefaultStages))
	assert.Empty(t, store.Facts(9, models.DefaultStages))
}

func TestDefaultDatasetCoversEveryStage(t *testing.T) {
	store := Default()
	for i := range models.DefaultStages {
		assert.NotEmpty(t, store.Facts(i, models.DefaultStages), "阶段 %d", i)
	}
}

func TestRendererBuild(t *testing.T) {
	store, err := Parse([]byte(testDataset), FormatYAML)
	require.NoError(t, err)
	r := NewRenderer(store, models.DefaultStages, language.Chinese)

	panel, ok := r.Build(0, 3)
	require.True(t, ok)
	require.Len(t, panel.Entries, 3)
	for _, entry := range panel.Entries {
		assert.Equal(t, entry.Person+" · 幼儿时期", entry.Attribution)
		assert.True(t, strings.HasPrefix(entry.Sentence, "你知道吗？"+entry.Person), entry.Sentence)
		assert.NotContains(t, entry.Sentence, "岁")
	}

	_, ok = r.Build(1, 3)
	assert.False(t, ok, "空阶段不应生成面板")

	_, ok = r.Build(0, 0)
	assert.False(t, ok)
}

func TestRendererRender(t *testing.T) {
	store, err := Parse([]byte(testDataset), FormatYAML)
	require.NoError(t, err)
	r := NewRenderer(store, models.DefaultStages, language.Chinese)

	html := string(r.Render(0, 3))
	assert.Equal(t, 3, strings.Count(html, `class="fact-entry"`))
	assert.Contains(t, html, "fact-panel")

	assert.Empty(t, string(r.Render(1, 3)))
	assert.Empty(t, string(r.Render(7, 3)))
}

func TestRendererAddsStagePrefix(t *testing.T) {
	store, err := Parse([]byte(`{"stages":[{"facts":[{"person":"甲","text":"1905年发表论文"}]}]}`), FormatJSON)
	require.NoError(t, err)
	r := NewRenderer(store, models.DefaultStages, language.Chinese)

	panel, ok := r.Build(0, 1)
	require.True(t, ok)
	assert.Equal(t, "你知道吗？甲在幼儿时期发表论文", panel.Entries[0].Sentence)
}

func TestRendererSkipsPrefixWhenTextNamesStage(t *testing.T) {
	store, err := Parse([]byte(`{"stages":[{"facts":[{"person":"乙","text":"童年时在乡下读完了整套百科全书"}]}]}`), FormatJSON)
	require.NoError(t, err)
	r := NewRenderer(store, models.DefaultStages, language.Chinese)

	panel, ok := r.Build(0, 1)
	require.True(t, ok)
	assert.NotContains(t, panel.Entries[0].Sentence, "在幼儿时期")
	assert.Equal(t, "你知道吗？乙童年时在乡下读完了整套百科全书", panel.Entries[0].Sentence)
}

func TestRendererOmitsEmptySource(t *testing.T) {
	store, err := Parse([]byte(`{"stages":[{"facts":[{"person":"丙","text":"12岁自学了微积分"}]}]}`), FormatJSON)
	require.NoError(t, err)
	r := NewRenderer(store, models.DefaultStages, language.Chinese)

	html := string(r.Render(0, 1))
	require.Contains(t, html, `class="fact-entry"`)
	assert.NotContains(t, html, "fact-source")
	assert.NotContains(t, html, "来源：")

	store, err = Parse([]byte(`{"stages":[{"facts":[{"person":"丙","text":"12岁自学了微积分","source":"传记"}]}]}`), FormatJSON)
	require.NoError(t, err)
	r = NewRenderer(store, models.DefaultStages, language.Chinese)
	assert.Contains(t, string(r.Render(0, 1)), `<div class="fact-source">来源：传记</div>`)
}
