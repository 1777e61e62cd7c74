// Package export renders a finalized room snapshot into the flowed-text
// minutes document served to the admin. Output is plain UTF-8 so Korean (or
// any other script) survives without a font toolchain.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/toolbox-talk/backend/internal/minutes"
)

const dateLayout = "2006-01-02"

// Render lays the snapshot out in the fixed section order: header, attendees,
// numbered discussion items, additional notes, tasks with due dates, and the
// confirmer list.
func Render(snap minutes.Snapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📋 Toolbox Talk 회의록 - [%s]\n\n", snap.Code)
	fmt.Fprintf(&b, "일시: %s %s\n", snap.Info.Date, snap.Info.Time)
	fmt.Fprintf(&b, "장소: %s\n", snap.Info.Place)
	fmt.Fprintf(&b, "작업내용: %s\n\n", snap.Info.Task)
	fmt.Fprintf(&b, "리더: %s\n", snap.Leader)

	fmt.Fprintf(&b, "\n참석자: %s\n", strings.Join(snap.Attendees, ", "))

	b.WriteString("\n🧠 논의 내용\n")
	for i, item := range snap.Discussion {
		fmt.Fprintf(&b, "%d. 위험요소: %s / 안전대책: %s\n", i+1, item.Risk, item.Mitigation)
	}

	fmt.Fprintf(&b, "\n➕ 추가 논의 사항:\n%s\n", snap.Additional)

	b.WriteString("\n✅ 결정사항 및 조치\n")
	for _, task := range snap.Tasks {
		fmt.Fprintf(&b, "- %s: %s (완료 예정일: %s)\n",
			task.Owner, task.Responsibility, task.Due.Format(dateLayout))
	}

	b.WriteString("\n✍ 확인자 목록\n")
	for _, name := range snap.Confirmations {
		fmt.Fprintf(&b, "- %s (확인 완료)\n", name)
	}

	return b.String()
}

// Filename names the downloadable artifact with the export timestamp.
func Filename(at time.Time) string {
	return fmt.Sprintf("회의록_%s.txt", at.Format("20060102_1504"))
}
