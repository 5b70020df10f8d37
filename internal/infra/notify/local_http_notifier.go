package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"prepwise/internal/domain/service"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// localHTTPNotifier implements Notifier by sending HTTP POST requests to a
// local endpoint, where the surrounding UI shell listens for notices
type localHTTPNotifier struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// noticePush is the wire structure pushed to the endpoint
type noticePush struct {
	Notice      service.UINotice `json:"notice"`
	PublishTime string           `json:"publishTime"`
}

// NewLocalHTTPNotifier creates a new local HTTP notifier
func NewLocalHTTPNotifier(endpoint string, logger *slog.Logger) service.Notifier {
	return &localHTTPNotifier{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// PublishNotice publishes a notice by sending HTTP POST to the local endpoint
func (n *localHTTPNotifier) PublishNotice(ctx context.Context, notice *service.UINotice) error {
	if notice.NoticeID == "" {
		notice.NoticeID = uuid.NewString()
	}

	push := noticePush{
		Notice:      *notice,
		PublishTime: time.Now().UTC().Format(time.RFC3339),
	}

	body, err := json.Marshal(push)
	if err != nil {
		return errors.WithStack(err)
	}

	n.logger.Info("[LocalNotifier] Publishing notice",
		slog.String("notice_id", notice.NoticeID),
		slog.String("kind", notice.Kind),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "push notice")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return errors.Errorf("notice endpoint returned %d", resp.StatusCode)
	}

	return nil
}

func (n *localHTTPNotifier) Close() error {
	n.httpClient.CloseIdleConnections()

	return nil
}
