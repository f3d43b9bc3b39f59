package report

import (
	"strings"

	"github.com/starford/maeum/internal/models"
)

// Instructions is the system prompt sent with every pattern analysis.
const Instructions = `사용자의 감정 기록과 메모를 분석하여 특정 상황이나 키워드와 감정 사이의 상관관계를 찾아내세요.
예를 들어 "커피를 마실 때 주로 즐거워함", "회사 업무 이야기가 나올 때 불안해함" 같은 패턴을 3개 정도 추출하세요.

응답은 JSON 객체 하나로만 작성하세요.
- summary: 사용자의 전반적인 생활 패턴과 감정 경향에 대한 다정한 요약 (2문장)
- patterns: 배열. 각 항목은
  - situation: 상황 키워드 (예: 친구와의 만남, 조용한 새벽)
  - moodEmoji: 그 상황에서 주로 느끼는 감정의 이모지
  - description: 상황과 감정의 연결 이유에 대한 짧은 설명`

// BuildPrompt renders the journal as the record list the model reads, one
// line per entry in the given order.
func BuildPrompt(entries []models.MoodEntry) string {
	var b strings.Builder
	b.WriteString("기록 리스트:\n")
	for _, e := range entries {
		c, ok := e.Mood.Category()
		if !ok {
			continue
		}
		b.WriteString("- [")
		b.WriteString(c.Glyph)
		b.WriteString(" ")
		b.WriteString(c.Label)
		b.WriteString("]")
		if labels := e.NuanceLabels(); len(labels) > 0 {
			b.WriteString(" 뉘앙스: ")
			b.WriteString(strings.Join(labels, ", "))
			b.WriteString(" |")
		}
		b.WriteString(" 메모: ")
		b.WriteString(strings.Join(strings.Fields(e.Note), " "))
		b.WriteString("\n")
	}
	return b.String()
}
