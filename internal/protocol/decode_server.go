package protocol

import (
	"github.com/tidwall/gjson"
)

// DecodeVersionResult decodes the result of server.getVersion.
func DecodeVersionResult(v gjson.Result) (string, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) string {
		return r.str(v, "version")
	})
}

// DecodeServerConnected decodes the params of server.connected. The engine may
// omit params entirely.
func DecodeServerConnected(v gjson.Result) (ServerConnected, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) ServerConnected {
		c := ServerConnected{Version: r.optStr(v, "version")}
		if pid := r.optInt(v, "pid"); pid != nil {
			c.PID = *pid
		}
		return c
	})
}

// DecodeServerStatus decodes the params of server.status.
func DecodeServerStatus(v gjson.Result) (ServerStatus, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) ServerStatus {
		var status ServerStatus
		if a, ok := r.optObject(v, "analysis"); ok {
			status.Analysis = &AnalysisStatus{
				IsAnalyzing:    r.bool(a, "isAnalyzing"),
				AnalysisTarget: r.optStr(a, "analysisTarget"),
			}
		}
		if p, ok := r.optObject(v, "pub"); ok {
			status.Pub = &PubStatus{IsListingPackageDirs: r.bool(p, "isListingPackageDirs")}
		}
		return status
	})
}

// DecodeServerError decodes the params of server.error.
func DecodeServerError(v gjson.Result) (ServerError, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) ServerError {
		return ServerError{
			IsFatal:    r.bool(v, "isFatal"),
			Message:    r.str(v, "message"),
			StackTrace: r.optStr(v, "stackTrace"),
		}
	})
}

// DecodeServerPortResult decodes the result of diagnostic.getServerPort.
func DecodeServerPortResult(v gjson.Result) (int, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) int {
		return r.int(v, "port")
	})
}

// DecodeAnalyticsEnabledResult decodes the result of analytics.isEnabled.
func DecodeAnalyticsEnabledResult(v gjson.Result) (bool, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) bool {
		return r.bool(v, "enabled")
	})
}

// DecodeContextIDResult decodes the result of execution.createContext.
func DecodeContextIDResult(v gjson.Result) (string, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) string {
		return r.str(v, "id")
	})
}

// DecodeMapURIResult decodes the result of execution.mapUri. Exactly one of
// File and URI is set.
func DecodeMapURIResult(v gjson.Result) (MapURIResult, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) MapURIResult {
		return MapURIResult{
			File: r.optStr(v, "file"),
			URI:  r.optStr(v, "uri"),
		}
	})
}

// DecodeLaunchData decodes the params of execution.launchData.
func DecodeLaunchData(v gjson.Result) (LaunchData, error) {
	return decodeWith(v, func(r *reader, v gjson.Result) LaunchData {
		return LaunchData{
			File:            r.str(v, "file"),
			Kind:            r.optStr(v, "kind"),
			ReferencedFiles: r.optStrings(v, "referencedFiles"),
		}
	})
}
