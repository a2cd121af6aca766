// Package queue contains the background consumer that listens to the
// group.changed queue and appends one line per event to logs/changes.log.
package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"
)

// Consumer mirrors group.changed events into a flat log file.
type Consumer struct {
    URL    string
    LogDir string
    Log    logrus.FieldLogger
}

// Start connects to RabbitMQ, declares the queue and consumes until ctx is
// done.  It redials with exponential backoff when the broker goes away and
// rejects (without requeue) any message it cannot handle so the loop keeps
// going.
func (c *Consumer) Start(ctx context.Context) {
    backoff := time.Second
    for ctx.Err() == nil {
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            c.Log.WithError(err).Warnf("change-consumer: dial failed; retrying in %s", backoff)
            if !sleep(ctx, backoff) {
                break
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if err != nil {
            c.Log.WithError(err).Warn("change-consumer: consume loop ended; reconnecting")
            sleep(ctx, 2*time.Second)
        }
    }
    c.Log.Info("change-consumer: stopped")
}

// sleep waits for d and reports false when ctx ends first.
func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.Log.WithError(err).Warn("change-consumer: set QoS failed")
    }
    if _, err := ch.QueueDeclare(GroupChangedQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(GroupChangedQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return nil
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.handleMessage(d.Body); err != nil {
                c.Log.WithError(err).Error("change-consumer: handle message failed")
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func (c *Consumer) handleMessage(body []byte) error {
    var ev GroupChangedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    dir := c.LogDir
    if dir == "" {
        dir = "logs"
    }
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(filepath.Join(dir, "changes.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(FormatEvent(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatEvent renders ev as a single human-friendly log line.
func FormatEvent(ev GroupChangedEvent) string {
    flights := "[]"
    if len(ev.FlightIDs) > 0 {
        ids := make([]string, 0, len(ev.FlightIDs))
        for _, id := range ev.FlightIDs {
            ids = append(ids, fmt.Sprint(id))
        }
        flights = "[" + strings.Join(ids, ",") + "]"
    }
    line := fmt.Sprintf("[%s] %s | change_id=%s | actor=%d | ride_id=%d | flights=%s",
        ev.OccurredAt, ev.Action, ev.ChangeID, ev.ActorUserID, ev.RideID, flights)
    if ev.Date != "" {
        line += fmt.Sprintf(" | pickup=%s %s", ev.Date, ev.Time)
    }
    if ev.VehicleClass != "" {
        line += " | vehicle=" + ev.VehicleClass
    }
    if ev.IgnoredError {
        line += " | override"
    }
    return line + "\n"
}
