package bio

/*
#cgo CFLAGS: -x objective-c -fobjc-arc
#cgo LDFLAGS: -framework LocalAuthentication -framework Foundation

#import <LocalAuthentication/LocalAuthentication.h>
#import <Foundation/Foundation.h>
#import <dispatch/dispatch.h>
#include <stdlib.h>

enum {
	CLIENTVAULT_BIO_NO_CONTEXT  = -100,
	CLIENTVAULT_BIO_UNAVAILABLE = -101,
	CLIENTVAULT_BIO_TIMEOUT     = -103,
	CLIENTVAULT_BIO_UNKNOWN     = -104,
};

// Biometrics with fallback to the device password.
static const LAPolicy clientvault_policy = LAPolicyDeviceOwnerAuthentication;

static int clientvault_bio_available(void) {
	@autoreleasepool {
		LAContext *context = [[LAContext alloc] init];
		if (!context) {
			return 0;
		}
		NSError *err = nil;
		return [context canEvaluatePolicy:clientvault_policy error:&err] ? 1 : 0;
	}
}

static int clientvault_bio_prompt(const char *cReason) {
	@autoreleasepool {
		NSString *reason = cReason ? [[NSString alloc] initWithUTF8String:cReason] : nil;
		if (!reason) {
			reason = @"Unlock your vault";
		}

		LAContext *context = [[LAContext alloc] init];
		if (!context) {
			return CLIENTVAULT_BIO_NO_CONTEXT;
		}

		NSError *canError = nil;
		if (![context canEvaluatePolicy:clientvault_policy error:&canError]) {
			return CLIENTVAULT_BIO_UNAVAILABLE;
		}

		dispatch_semaphore_t sema = dispatch_semaphore_create(0);

		__block BOOL success = NO;
		__block NSError *evalError = nil;

		[context evaluatePolicy:clientvault_policy
		        localizedReason:reason
		                  reply:^(BOOL evaluated, NSError * _Nullable error) {
		                      success = evaluated;
		                      evalError = error;
		                      dispatch_semaphore_signal(sema);
		                  }];

		dispatch_time_t timeout = dispatch_time(DISPATCH_TIME_NOW, (int64_t)(60 * NSEC_PER_SEC));
		long waitResult = dispatch_semaphore_wait(sema, timeout);
		[context invalidate];

		if (waitResult != 0) {
			return CLIENTVAULT_BIO_TIMEOUT;
		}
		if (success) {
			return 0;
		}
		return evalError ? (int)[evalError code] : CLIENTVAULT_BIO_UNKNOWN;
	}
}
*/
import "C"
import (
	"context"
	"fmt"
	"strings"
	"unsafe"
)

const defaultPrompt = "Unlock your vault"

type platform struct{}

func (platform) Available() bool {
	return C.clientvault_bio_available() == 1
}

// Authenticate blocks until the user answers the LocalAuthentication sheet or
// the 60 second timeout expires.
func (platform) Authenticate(ctx context.Context, prompt string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if strings.TrimSpace(prompt) == "" {
		prompt = defaultPrompt
	}
	cPrompt := C.CString(prompt)
	defer C.free(unsafe.Pointer(cPrompt))

	code := int(C.clientvault_bio_prompt(cPrompt))
	switch code {
	case 0:
		return true, nil
	case int(C.CLIENTVAULT_BIO_NO_CONTEXT), int(C.CLIENTVAULT_BIO_UNAVAILABLE):
		return false, ErrUnavailable
	case int(C.CLIENTVAULT_BIO_UNKNOWN):
		return false, fmt.Errorf("biometric prompt failed (code %d)", code)
	default:
		// LAError codes: failed match, user cancel, fallback, system cancel, timeout.
		return false, nil
	}
}
