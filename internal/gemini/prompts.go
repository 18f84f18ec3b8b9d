package gemini

import (
	"fmt"
	"strings"

	"github.com/rpggio/riskdraft/internal/domain/table"
)

func draftPrompt(title, procedure string, hasImage bool) string {
	var b strings.Builder
	b.WriteString("당신은 대한민국 최고의 산업안전보건 전문가입니다.\n")
	b.WriteString("다음 정보를 바탕으로 위험성 평가표(Risk Assessment) 초안을 작성해주세요.\n\n")
	fmt.Fprintf(&b, "1. 작업 공정명: %q\n", title)
	fmt.Fprintf(&b, "2. 상세 작업절차: %q\n", procedure)
	if hasImage {
		b.WriteString("3. 현장 사진/조감도 정보가 이미지로 제공되었습니다.\n")
	}
	b.WriteString("\n요구사항:\n")
	b.WriteString("- 작업 공정명과 상세 작업절차를 분석하여 핵심적인 '단위작업'들로 나누십시오.\n")
	b.WriteString("- 각 단위작업별로 발생 가능한 '잠재위험'과 그에 따른 실효성 있는 '안전대책'을 도출하십시오.\n")
	b.WriteString("- 관련 법 조항을 요약하여 'legalClauses'에 담으십시오.\n")
	b.WriteString("\n응답 형식: 반드시 JSON 형식으로만 답변하십시오.\n")
	return b.String()
}

func supplementPrompt(rows []table.Row) string {
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = fmt.Sprintf("단위작업: %s, 잠재위험: %s, 안전대책: %s, 사용자가 직접 입력한 현장 반영사항(중요): %s",
			r.UnitTask, r.PotentialHazard, r.SafetyMeasure, r.ReflectedItems)
	}

	var b strings.Builder
	b.WriteString("다음은 기존 위험성 평가표에 사용자가 직접 '반영사항 추가'(사용 공구, 장비, 작업 높이, 추가 위험 등)를 입력한 데이터입니다.\n")
	b.WriteString("사용자가 입력한 '반영사항 추가' 내용을 적극 반영하여, 수정 및 보완된 위험성 평가표를 생성하십시오.\n\n")
	b.WriteString("데이터:\n")
	b.WriteString(strings.Join(lines, "\n---\n"))
	b.WriteString("\n\n지침:\n")
	b.WriteString("1. 사용자가 '반영사항'에 입력한 높이, 도구, 장비 특성을 고려하여 잠재위험을 더 구체화하십시오.\n")
	b.WriteString("2. 안전대책 역시 해당 장비나 높이에 맞는 법적/기술적 기준을 적용하여 강화하십시오.\n")
	b.WriteString("3. 결과는 각 행에 대해 보완된 단위작업, 보완된 잠재위험, 보완된 안전대책으로 구성하십시오.\n")
	return b.String()
}

func summaryPrompt(title string, rows []table.Row) string {
	tasks := make([]string, len(rows))
	for i, r := range rows {
		tasks[i] = "- " + r.UnitTask
	}
	return fmt.Sprintf("공정명: %s\n작업목록:\n%s\n\n위 시공 절차를 안전 관점에서 2문장 이내로 요약해줘.",
		title, strings.Join(tasks, "\n"))
}
