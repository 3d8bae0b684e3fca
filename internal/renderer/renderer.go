package renderer

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"mail-routing-service/internal/domain"
)

// Renderer выводит таблицу маршрутизации плоским текстом. Колонки
// строки: маркер, адреса сущности, получатели, комментарий. Маркер "-"
// помечает сущность без установленного маршрута, маркер "!" строку
// предупреждения.
type Renderer struct {
	w io.Writer
}

// NewRenderer создает новый экземпляр Renderer.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w}
}

// Render выводит полную таблицу маршрутизации.
func (r *Renderer) Render(report *domain.Report) error {
	tw := tabwriter.NewWriter(r.w, 0, 8, 2, ' ', 0)

	fmt.Fprintf(tw, "# mail routing table %s\n", report.RunID)
	fmt.Fprintf(tw, "# generated %s, default domain %s\n",
		report.GeneratedAt.UTC().Format(time.RFC3339), report.DefaultDomain)

	fmt.Fprintln(tw, "\n[domains]")
	for _, name := range report.Domains {
		fmt.Fprintln(tw, name)
	}

	fmt.Fprintln(tw, "\n[users]")
	for _, entity := range report.Users {
		renderEntity(tw, entity)
	}

	fmt.Fprintln(tw, "\n[groups]")
	for _, entity := range report.Groups {
		// Группы без почтовых алиасов в маршрутизации не участвуют.
		if !entity.EmailEnabled {
			continue
		}
		renderEntity(tw, entity)
	}

	return tw.Flush()
}

func renderEntity(w io.Writer, entity domain.ResolvedEntity) {
	addresses := strings.Join(entity.Addresses, ", ")
	if !entity.Delivery.Defined {
		fmt.Fprintf(w, "-\t%s\t\t%s\n", addresses, entity.Delivery.Comment)
		return
	}

	recipients := make([]string, 0, len(entity.Delivery.Recipients))
	for _, addr := range entity.Delivery.Recipients {
		recipients = append(recipients, addr.String())
	}
	fmt.Fprintf(w, " \t%s\t%s\t%s\n", addresses, strings.Join(recipients, ", "), entity.Delivery.Comment)
	for _, warning := range entity.Delivery.Warnings {
		fmt.Fprintf(w, "!\t\t\t%s\n", warning)
	}
}
