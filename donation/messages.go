package donation

import (
	"errors"
	"fmt"
	"time"

	"github.com/AlexZinkM/sol-donate-bot/internal/common"
	"github.com/AlexZinkM/sol-donate-bot/internal/keystore"
)

const (
	msgWelcome = "Welcome to the Solana Donation Bot! \n\n" +
		"Use the following commands to interact with the bot: \n\n" +
		"/setPrivateKey <private-key> - Set your private key. \n" +
		"/donate1Sol - Donate 1 SOL to the project. \n" +
		"/balance - Show the balance of your wallet. \n" +
		"/address - Show your wallet address as text and QR code. \n" +
		"/clearKey - Forget your private key."

	msgKeySet             = "Your private key has been set successfully."
	msgKeyCleared         = "Your private key has been removed."
	msgInvalidKey         = "Invalid private key format. Please ensure it is a Base58 encoded string."
	msgKeyNotSet          = "Please set your private key using /setPrivateKey <private-key>"
	msgInsufficient       = "Insufficient funds! Your balance is %s SOL, but you are trying to send %s SOL."
	msgCooldown           = "You have donated recently. Please wait %v before donating again."
	msgBalance            = "Your balance is %s SOL"
	msgBalanceUnavailable = "Could not check your balance right now. Please try again later."
	msgBuildFailed        = "Failed to prepare the donation transaction. Please try again later."
	msgSignFailed         = "Failed to sign the donation transaction. Nothing was sent."
	msgSubmitFailed       = "The network did not accept your donation. Please try again later."
	msgStatusUnknown      = "Your donation was sent but could not be confirmed yet. Check its status here \n %s"
	msgThanks             = "Thank you for your donation! Check the details of your transaction here \n %s"
	msgFailed             = "Failed to send donation request. Please try again later."
)

// outcomeMessage maps a finished flow to the single reply the chat receives
func outcomeMessage(out Outcome) string {
	var (
		insufficient *InsufficientBalanceError
		cooldown     *CooldownError
	)

	switch {
	case out.Err == nil && out.Receipt != nil:
		return fmt.Sprintf(msgThanks, out.Receipt.URL)
	case errors.Is(out.Err, keystore.ErrKeyNotSet):
		return msgKeyNotSet
	case errors.As(out.Err, &insufficient):
		return fmt.Sprintf(msgInsufficient,
			common.FormatSOL(insufficient.Balance.Lamports), common.FormatSOL(insufficient.Required))
	case errors.As(out.Err, &cooldown):
		return fmt.Sprintf(msgCooldown, cooldown.Remaining.Round(time.Second))
	case errors.Is(out.Err, ErrBalanceUnavailable):
		return msgBalanceUnavailable
	case errors.Is(out.Err, ErrBuildFailed):
		return msgBuildFailed
	case errors.Is(out.Err, ErrSignFailed):
		return msgSignFailed
	case errors.Is(out.Err, ErrStatusUnknown) && out.Receipt != nil:
		return fmt.Sprintf(msgStatusUnknown, out.Receipt.URL)
	case errors.Is(out.Err, ErrSubmitFailed):
		return msgSubmitFailed
	default:
		return msgFailed
	}
}
