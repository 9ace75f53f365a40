package worker

import (
	"context"
	"testing"

	"github.com/hibiken/asynq"

	"github.com/poshpearl/poshpearl/internal/constants"
)

func TestConsumerSkipsInvalidPayloads(t *testing.T) {
	consumer := NewConsumer(nil)

	cases := []struct {
		name    string
		handler func(context.Context, *asynq.Task) error
		payload string
	}{
		{"order confirmation zero id", consumer.handleOrderConfirmationEmail, `{"order_id":0}`},
		{"payment confirmed zero id", consumer.handlePaymentConfirmedEmail, `{"order_id":0}`},
		{"welcome zero id", consumer.handleWelcomeEmail, `{"user_id":0}`},
		{"password reset missing token", consumer.handlePasswordResetEmail, `{"user_id":7}`},
	}
	for _, tc := range cases {
		task := asynq.NewTask(constants.TaskTypeWelcomeEmail, []byte(tc.payload))
		if err := tc.handler(context.Background(), task); err != nil {
			t.Fatalf("%s: expected skip without error, got %v", tc.name, err)
		}
	}
}

func TestConsumerRejectsMalformedPayload(t *testing.T) {
	consumer := NewConsumer(nil)
	task := asynq.NewTask(constants.TaskTypeOrderConfirmationEmail, []byte("not-json"))
	if err := consumer.handleOrderConfirmationEmail(context.Background(), task); err == nil {
		t.Fatal("malformed payload should return an error for retry visibility")
	}
}
