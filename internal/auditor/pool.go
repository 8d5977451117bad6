package auditor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/job-status-service/internal/auditor/domain"
)

// workerLoop records events until the message channel closes or ctx is canceled
func (a *Auditor) workerLoop(ctx context.Context, workerNum int, messages <-chan message) {
	workerName := fmt.Sprintf("%s-%d", a.consumerTag, workerNum)

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-messages:
			if !ok {
				return
			}
			a.handle(ctx, workerName, msg)
		}
	}
}

func (a *Auditor) handle(ctx context.Context, workerName string, msg message) {
	recordCtx, cancel := context.WithTimeout(ctx, a.recordTimeout)
	defer cancel()

	err := a.recorder.RecordTransition(recordCtx, msg.event)
	if err == nil {
		if ackErr := msg.delivery.Ack(false); ackErr != nil {
			a.logger.Error("Failed to ACK message",
				slog.String("worker_name", workerName),
				slog.String("job_id", msg.event.JobID),
				slog.String("error", ackErr.Error()),
			)
		}
		return
	}

	requeue := domain.IsRetryable(err)
	a.logger.Error("Failed to record transition",
		slog.String("worker_name", workerName),
		slog.String("job_id", msg.event.JobID),
		slog.Bool("requeue", requeue),
		slog.String("error", err.Error()),
	)

	if nackErr := msg.delivery.Nack(false, requeue); nackErr != nil {
		a.logger.Error("Failed to NACK message",
			slog.String("worker_name", workerName),
			slog.String("job_id", msg.event.JobID),
			slog.String("error", nackErr.Error()),
		)
	}
}
