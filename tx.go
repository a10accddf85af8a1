package timevault

import (
	"reflect"
	"regexp"

	"github.com/iov-one/timevault/errors"
)

// Persistent values have a binary form.
type Persistent interface {
	Marshal() ([]byte, error)
	Unmarshal([]byte) error
}

// Msg is a requested state transition, such as a vault deposit. It carries
// no authentication, that is the job of the Tx wrapping it.
type Msg interface {
	Persistent

	// Path routes the message to its handler. It has the
	// "extension/action" form checked by ValidatePath.
	Path() string

	// Validate checks everything that does not need the database.
	Validate() error
}

// Tx is what clients submit: a message together with what the decorators
// need to process it, like signatures.
type Tx interface {
	Persistent
	GetMsg() (Msg, error)
}

// TxDecoder parses the raw transaction bytes of a block.
type TxDecoder func(raw []byte) (Tx, error)

// GetPath returns the message path, or "(missing)" when tx carries no
// usable message.
func GetPath(tx Tx) string {
	if msg, err := tx.GetMsg(); err == nil && msg != nil {
		return msg.Path()
	}
	return "(missing)"
}

// LoadMsg stores the message of tx in destination and validates it.
// Destination is a pointer to the message type or to the struct the
// message points to.
func LoadMsg(tx Tx, destination interface{}) error {
	msg, err := tx.GetMsg()
	if err != nil {
		return errors.Wrap(err, "cannot get transaction message")
	}
	if msg == nil {
		return errors.Wrap(errors.ErrMsg, "no message")
	}
	if err := assign(destination, msg); err != nil {
		return err
	}
	if err := msg.Validate(); err != nil {
		return errors.Wrap(err, "invalid message")
	}
	return nil
}

func assign(destination interface{}, msg Msg) error {
	dest := reflect.ValueOf(destination)
	if dest.Kind() != reflect.Ptr || dest.IsNil() {
		return errors.Wrap(errors.ErrHuman, "destination must be a non nil pointer")
	}
	target, src := dest.Elem(), reflect.ValueOf(msg)
	if src.Type().AssignableTo(target.Type()) {
		target.Set(src)
		return nil
	}
	if src.Kind() == reflect.Ptr && src.Elem().Type().AssignableTo(target.Type()) {
		if src.IsNil() {
			return errors.Wrap(errors.ErrMsg, "nil message")
		}
		target.Set(src.Elem())
		return nil
	}
	return errors.Wrapf(errors.ErrType, "want %T message, got %T", destination, msg)
}

var pathFormat = regexp.MustCompile(`^[a-zA-Z0-9_\-]+/[a-zA-Z0-9_\-]+$`)

// ValidatePath checks the "extension/action" format of a message path.
func ValidatePath(path string) error {
	if !pathFormat.MatchString(path) {
		return errors.Wrapf(errors.ErrInput, "invalid path %q", path)
	}
	return nil
}
