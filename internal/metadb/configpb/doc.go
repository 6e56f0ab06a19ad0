// Package configpb holds the protocol buffer message for metadb writer
// configuration, normally produced by protoc --go_out. It is checked in
// by hand here rather than generated, since regenerating it from
// config.proto requires a protoc toolchain, which does not ship with this
// repository; config.pb.go must be kept in sync with config.proto by hand
// until that changes.
package configpb
