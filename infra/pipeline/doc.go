// Package pipeline provides the prediction pipeline backends registered with
// core/prediction: a JSON linear artifact evaluated with gonum, an ONNX
// regressor and a remote model server.
package pipeline
