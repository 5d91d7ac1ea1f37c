package rest

import (
	"embed"
	"html/template"
	"net/http"

	"go.opentelemetry.io/otel"
)

//go:embed templates/index.html
var templates embed.FS

var indexTemplate = template.Must(template.ParseFS(templates, "templates/index.html"))

type indexPage struct {
	Tasks []Task
	Error string
}

func (t *TaskHandler) index(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer(otelName).Start(r.Context(), "TaskHandler.index")
	defer span.End()

	var page indexPage

	status := http.StatusOK

	tasks, err := t.listTasks(ctx)
	if err != nil {
		recordError(ctx, err)

		status = http.StatusBadGateway
		page.Error = "The task server is unavailable."
	}

	for _, task := range tasks {
		page.Tasks = append(page.Tasks, NewTask(task))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	_ = indexTemplate.Execute(w, page)
}
