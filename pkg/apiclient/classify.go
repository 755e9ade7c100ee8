package apiclient

import "net/http"

type logLevel int

const (
	levelWarn logLevel = iota
	levelError
)

// rule describes how a failure is classified. Rules with useServerMessage
// prefer the server's error.message over the catalog default.
type rule struct {
	kind             ErrorKind
	messageID        string
	useServerMessage bool
	level            logLevel
	logMsg           string
}

var statusRules = map[int]rule{
	http.StatusBadRequest:          {KindBusiness, MsgBusinessError, true, levelError, "bad request"},
	http.StatusUnauthorized:        {KindUnauthorized, MsgUnauthorized, false, levelWarn, "unauthorized access"},
	http.StatusPaymentRequired:     {KindInsufficientBalance, MsgInsufficientBalance, true, levelWarn, "insufficient balance"},
	http.StatusForbidden:           {KindPermission, MsgPermissionError, false, levelError, "forbidden"},
	http.StatusNotFound:            {KindNotFound, MsgNotFound, true, levelWarn, "resource not found"},
	http.StatusInternalServerError: {KindServer, MsgServerError, false, levelError, "server error"},
	http.StatusBadGateway:          {KindServiceUnavailable, MsgServiceUnavailable, true, levelError, "upstream service unavailable"},
	http.StatusGatewayTimeout:      {KindServiceTimeout, MsgServiceTimeout, true, levelError, "upstream service timeout"},
}

var (
	networkRule  = rule{KindNetwork, MsgNetworkError, false, levelError, "network error"}
	fallbackRule = rule{KindUnknown, MsgUnknownError, true, levelError, "http error"}
)

// ruleForStatus returns the rule for an HTTP status, falling back to UNKNOWN_ERROR.
func ruleForStatus(status int) rule {
	if r, ok := statusRules[status]; ok {
		return r
	}
	return fallbackRule
}

// classifier turns transport failures and failing responses into ClassifiedErrors.
type classifier struct {
	messages *Catalog
}

func (c classifier) network(err error) *ClassifiedError {
	return &ClassifiedError{
		Kind:     networkRule.kind,
		Message:  c.messages.Message(networkRule.messageID),
		Original: err,
	}
}

func (c classifier) status(status int, body []byte, header http.Header) (*ClassifiedError, rule) {
	r := ruleForStatus(status)
	msg := ""
	if r.useServerMessage {
		msg = serverMessage(body)
	}
	if msg == "" {
		msg = c.messages.Message(r.messageID)
	}
	return &ClassifiedError{
		Kind:       r.kind,
		Message:    msg,
		StatusCode: status,
		Original:   &HTTPError{StatusCode: status, Body: body, Header: header},
	}, r
}
