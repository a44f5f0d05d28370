// Package serving checks a packaged model end to end: it can serve a loaded
// model over the platform's invocation route and smoke test a model
// directory through the framework's own model server.
package serving

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/craftworksgmbh/gonavio/pkg/errors"
	"github.com/craftworksgmbh/gonavio/pkg/framework"
	"github.com/craftworksgmbh/gonavio/pkg/types"
)

// InvocationsPath is the platform's prediction route.
const InvocationsPath = "/invocations"

const (
	DefaultPort         = 5001
	DefaultReadyTimeout = 30 * time.Second

	readyPollInterval = 500 * time.Millisecond
)

// Options configures a serving smoke test.
type Options struct {
	// Port the model server listens on, DefaultPort when zero.
	Port int
	// Command overrides the framework's serve command.
	Command []string
	// RequestBodies overrides the request bodies derived from the model's
	// example request.
	RequestBodies []map[string]interface{}
	// FrameworkMajorVersion picks the request body encoding when no
	// framework is attached to read the version from.
	FrameworkMajorVersion int
	// ReadyTimeout bounds the wait for the server to accept connections.
	ReadyTimeout time.Duration
	Client       *http.Client
}

func readExampleRequestContent(modelDir string) ([]byte, error) {
	descriptor, err := framework.ReadDescriptor(modelDir)
	if err != nil {
		return nil, err
	}
	schemaPath := descriptor.StringField("metadata.request_schema.path")
	if schemaPath == "" {
		return nil, errors.NewPreconditionFailedError(
			"model descriptor has no metadata.request_schema.path")
	}
	content, err := os.ReadFile(filepath.Join(modelDir, schemaPath))
	if err != nil {
		return nil, errors.NewFileNotFoundError(filepath.Join(modelDir, schemaPath))
	}
	return content, nil
}

// ReadExampleRequestDocument loads the example request a packaged model
// directory registered in its descriptor metadata, as the raw json document.
// Schema checks must run against this form: decoding into the typed struct
// re-adds zero values for absent column fields.
func ReadExampleRequestDocument(modelDir string) (map[string]interface{}, error) {
	content, err := readExampleRequestContent(modelDir)
	if err != nil {
		return nil, err
	}
	var document map[string]interface{}
	if err := json.Unmarshal(content, &document); err != nil {
		return nil, fmt.Errorf("parse example request: %w", err)
	}
	return document, nil
}

// ReadExampleRequest loads the registered example request into its typed
// form, for frame building.
func ReadExampleRequest(modelDir string) (types.ExampleRequest, error) {
	content, err := readExampleRequestContent(modelDir)
	if err != nil {
		return types.ExampleRequest{}, err
	}
	var example types.ExampleRequest
	if err := json.Unmarshal(content, &example); err != nil {
		return types.ExampleRequest{}, fmt.Errorf("parse example request: %w", err)
	}
	return example, nil
}

// ExampleFrame builds the prediction input frame from the model's example
// request: one row of feature sample values, plus the datetime column when
// present.
func ExampleFrame(modelDir string) (framework.Frame, error) {
	example, err := ReadExampleRequest(modelDir)
	if err != nil {
		return framework.Frame{}, err
	}
	frame := framework.Frame{Rows: [][]interface{}{{}}}
	for _, column := range example.FeatureColumns {
		frame.Columns = append(frame.Columns, column.Name)
		frame.Rows[0] = append(frame.Rows[0], column.SampleData)
	}
	if example.DateTimeColumn != nil {
		frame.Columns = append(frame.Columns, example.DateTimeColumn.Name)
		frame.Rows[0] = append(frame.Rows[0], example.DateTimeColumn.SampleData)
	}
	return frame, nil
}

// EncodeFrame renders a frame as a request body for the given framework
// major version: split orientation up to version 1, dataframe records from
// version 2 on.
func EncodeFrame(frame framework.Frame, majorVersion int) map[string]interface{} {
	if majorVersion >= 2 {
		records := frame.Records()
		converted := make([]interface{}, 0, len(records))
		for _, record := range records {
			converted = append(converted, record)
		}
		return map[string]interface{}{"dataframe_records": converted}
	}
	rows := make([]interface{}, 0, len(frame.Rows))
	for _, row := range frame.Rows {
		rows = append(rows, row)
	}
	return map[string]interface{}{"columns": frame.Columns, "data": rows}
}

func postInvocations(ctx context.Context, client *http.Client, url string, body map[string]interface{}) (map[string]interface{}, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := client.Do(request)
	if err != nil {
		return nil, errors.NewServingFailedError(err.Error())
	}
	defer response.Body.Close()

	var decoded map[string]interface{}
	_ = json.NewDecoder(response.Body).Decode(&decoded)
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return decoded, errors.NewServingFailedError(
			fmt.Sprintf("%s returned status %d", url, response.StatusCode))
	}
	return decoded, nil
}

// requestBodies resolves the bodies a smoke test posts: an explicit override,
// or the example request frame encoded for the framework's major version.
func requestBodies(fw framework.Framework, modelDir string, opts Options) ([]map[string]interface{}, error) {
	if opts.RequestBodies != nil {
		return opts.RequestBodies, nil
	}
	frame, err := ExampleFrame(modelDir)
	if err != nil {
		return nil, err
	}
	major := opts.FrameworkMajorVersion
	if fw != nil {
		major = framework.MajorVersion(fw.Version())
	}
	return []map[string]interface{}{EncodeFrame(frame, major)}, nil
}

// Check launches the framework's model server for modelDir as a subprocess,
// waits for it to accept connections and issues one prediction request per
// request body. The subprocess is terminated when the check returns,
// regardless of outcome.
func Check(ctx context.Context, fw framework.Framework, modelDir string, opts Options) error {
	log := logr.FromContextOrDiscard(ctx)

	port := opts.Port
	if port == 0 {
		port = DefaultPort
	}
	command := opts.Command
	if command == nil && fw != nil {
		command = fw.ServeCommand(modelDir, port)
	}
	if len(command) == 0 {
		return errors.NewPreconditionFailedError("no serve command available for the model server")
	}

	readyTimeout := opts.ReadyTimeout
	if readyTimeout == 0 {
		readyTimeout = DefaultReadyTimeout
	}
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}

	bodies, err := requestBodies(fw, modelDir, opts)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start model server: %w", err)
	}
	defer func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}()

	address := fmt.Sprintf("127.0.0.1:%d", port)
	waitCtx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()
	err = wait.PollImmediateUntilWithContext(waitCtx, readyPollInterval, func(ctx context.Context) (bool, error) {
		conn, err := net.DialTimeout("tcp", address, readyPollInterval)
		if err != nil {
			return false, nil
		}
		conn.Close()
		return true, nil
	})
	if err != nil {
		return errors.NewServingFailedError(fmt.Sprintf("model server at %s did not become ready: %v", address, err))
	}

	url := "http://" + address + InvocationsPath
	for _, body := range bodies {
		response, err := postInvocations(ctx, client, url, body)
		if err != nil {
			return err
		}
		log.V(1).Info("invocation response", "response", response)
	}
	return nil
}
