package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Manage fundraising events",
}

var (
	eventDesc  string
	eventStart string
	eventEnd   string
	eventKey   string
)

var eventCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create an event and save the event key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := loadKey(accountName)
		if err != nil {
			return err
		}

		start, err := parseDate(eventStart, time.Now())
		if err != nil {
			return fmt.Errorf("start: %w", err)
		}
		end, err := parseDate(eventEnd, start.AddDate(0, 1, 0))
		if err != nil {
			return fmt.Errorf("end: %w", err)
		}

		body := struct {
			Name        string    `json:"name"`
			Description string    `json:"description"`
			StartDate   time.Time `json:"start_date"`
			EndDate     time.Time `json:"end_date"`
		}{args[0], eventDesc, start, end}

		var created struct {
			Event      map[string]any `json:"event"`
			PrivateKey string         `json:"private_key"`
		}
		if err := call(http.MethodPost, "/event", key, body, &created); err != nil {
			return err
		}

		name := eventKey
		if name == "" {
			name = "event-" + args[0]
		}
		path, err := saveKey(name, created.PrivateKey)
		if err != nil {
			return err
		}

		fmt.Printf("event key: %s\n", path)
		return show(created.Event)
	},
}

var eventAcceptCmd = &cobra.Command{
	Use:   "accept [address]",
	Short: "Accept a pending event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := loadKey(accountName)
		if err != nil {
			return err
		}

		var e map[string]any
		if err := call(http.MethodPost, "/event/accept", key, map[string]string{"address": args[0]}, &e); err != nil {
			return err
		}

		return show(e)
	},
}

var (
	disburseAmount uint64
	disburseReason string
)

var eventDisburseCmd = &cobra.Command{
	Use:   "disburse [address]",
	Short: "Pay out funds raised by an event using the event key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if eventKey == "" {
			return errors.New("the event key is required")
		}

		key, err := loadKey(eventKey)
		if err != nil {
			return err
		}

		body := struct {
			Address string `json:"address"`
			Amount  uint64 `json:"amount"`
			Reason  string `json:"reason"`
		}{args[0], disburseAmount, disburseReason}

		var status map[string]any
		if err := call(http.MethodPost, "/event/disbursement", key, body, &status); err != nil {
			return err
		}

		return show(status)
	},
}

var eventEndCmd = &cobra.Command{
	Use:   "end [address]",
	Short: "End an event so it stops taking donations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := accountName
		if eventKey != "" {
			name = eventKey
		}

		key, err := loadKey(name)
		if err != nil {
			return err
		}

		var e map[string]any
		if err := call(http.MethodPost, "/event/end", key, map[string]string{"address": args[0]}, &e); err != nil {
			return err
		}

		return show(e)
	},
}

func init() {
	rootCmd.AddCommand(eventCmd)
	eventCmd.AddCommand(eventCreateCmd, eventAcceptCmd, eventDisburseCmd, eventEndCmd)

	eventCmd.PersistentFlags().StringVarP(&eventKey, "event-key", "e", "", "Name of the event key file.")

	eventCreateCmd.Flags().StringVarP(&eventDesc, "description", "d", "", "Description of the event.")
	eventCreateCmd.Flags().StringVar(&eventStart, "start", "", "Start date as YYYY-MM-DD, today when empty.")
	eventCreateCmd.Flags().StringVar(&eventEnd, "end", "", "End date as YYYY-MM-DD, a month after start when empty.")

	eventDisburseCmd.Flags().Uint64VarP(&disburseAmount, "amount", "v", 0, "Amount to pay out.")
	eventDisburseCmd.Flags().StringVarP(&disburseReason, "reason", "r", "", "What the funds pay for.")
	eventDisburseCmd.MarkFlagRequired("amount")
	eventDisburseCmd.MarkFlagRequired("reason")
}

func parseDate(s string, def time.Time) (time.Time, error) {
	if s == "" {
		return def.UTC(), nil
	}

	return time.Parse(time.DateOnly, s)
}
