package bedrock

import (
	"errors"
	"strings"

	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/viant/llmdispatch/genai/llm"
	basecfg "github.com/viant/llmdispatch/genai/llm/provider/base"
)

var codeKinds = map[string]llm.Kind{
	"ThrottlingException":           llm.KindRateLimited,
	"TooManyRequestsException":      llm.KindRateLimited,
	"ServiceUnavailableException":   llm.KindRateLimited,
	"ServiceQuotaExceededException": llm.KindRateLimited,
	"ModelNotReadyException":        llm.KindRateLimited,
	"InternalServerException":       llm.KindUnavailable,
	"ModelErrorException":           llm.KindUnavailable,
	"ModelTimeoutException":         llm.KindTransientNetwork,
	"RequestTimeout":                llm.KindTransientNetwork,
	"AccessDeniedException":         llm.KindCredential,
	"UnrecognizedClientException":   llm.KindCredential,
	"ExpiredTokenException":         llm.KindCredential,
	"InvalidSignatureException":     llm.KindCredential,
	"MissingAuthenticationToken":    llm.KindCredential,
	"ResourceNotFoundException":     llm.KindInvalidModel,
}

// Classify maps a bedrock runtime failure to an error kind. Validation errors
// naming the model are InvalidModel; any other validation error is treated as
// a token budget problem and retried with a lower ceiling.
func Classify(model string, err error) *llm.Error {
	if err == nil {
		return nil
	}
	var classified *llm.Error
	if errors.As(err, &classified) {
		return classified
	}
	ret := llm.Wrap(classifyKind(err), err).WithProvider(Provider).WithModel(model)
	var status interface{ HTTPStatusCode() int }
	if errors.As(err, &status) {
		ret.WithStatus(status.HTTPStatusCode())
	}
	return ret
}

func classifyKind(err error) llm.Kind {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		if code == "ValidationException" {
			if basecfg.IsInvalidModelMessage(apiErr.ErrorMessage()) {
				return llm.KindInvalidModel
			}
			return llm.KindTokenBudget
		}
		if kind, ok := codeKinds[code]; ok {
			return kind
		}
		return llm.KindHandler
	}
	if strings.Contains(strings.ToLower(err.Error()), "retrieve credentials") {
		return llm.KindCredential
	}
	var sendErr *smithyhttp.RequestSendError
	if errors.As(err, &sendErr) || basecfg.IsTransport(err) {
		return llm.KindTransientNetwork
	}
	return llm.KindHandler
}
