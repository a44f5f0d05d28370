package serving

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/craftworksgmbh/gonavio/pkg/framework"
	"github.com/craftworksgmbh/gonavio/pkg/types"
)

type invocationsBody struct {
	Columns          []string                 `json:"columns"`
	Data             [][]interface{}          `json:"data"`
	DataframeRecords []map[string]interface{} `json:"dataframe_records"`
}

func (b invocationsBody) frame() framework.Frame {
	if b.DataframeRecords != nil {
		frame := framework.Frame{}
		for _, record := range b.DataframeRecords {
			if frame.Columns == nil {
				for column := range record {
					frame.Columns = append(frame.Columns, column)
				}
			}
			row := make([]interface{}, 0, len(frame.Columns))
			for _, column := range frame.Columns {
				row = append(row, record[column])
			}
			frame.Rows = append(frame.Rows, row)
		}
		return frame
	}
	return framework.Frame{Columns: b.Columns, Rows: b.Data}
}

// Handler serves a loaded model on the platform's invocation route. Both
// request body encodings are accepted. Prediction errors are converted to
// the structured error payload at this boundary instead of failing the
// request. When accessLog is non-nil every request is access logged to it.
func Handler(model framework.Model, accessLog io.Writer) http.Handler {
	router := mux.NewRouter()
	router.Methods(http.MethodGet).Path("/healthz").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	router.Methods(http.MethodPost).Path(InvocationsPath).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body invocationsBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		output, err := model.Predict(r.Context(), body.frame())
		if err != nil {
			output = types.ErrorOutput(err)
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(output); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	if accessLog != nil {
		return handlers.LoggingHandler(accessLog, router)
	}
	return router
}
