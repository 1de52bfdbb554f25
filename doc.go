// Package contractkit provides:
//
// - A structural pattern engine over dynamic JSON/XML values (package pattern)
// - A stable failure model via Result and Issues (breadcrumb path, code, message)
// - An OpenAPI loader, a backward-compatibility checker and an HTTP stub server
//
// Design policy:
// - Keep only the shared result and error model in the root package.
// - Place the engine under pattern/, values under value/ and the CLI under cmd/contractkit.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	c, _, err := openapi.LoadFile("openapi.yaml", openapi.Options{})
//	if err != nil {
//		return err
//	}
//	res := pattern.Match(pattern.Ref("Pet"), v, c.Resolver())
//	if !res.IsSuccess() {
//		fmt.Println(res.Report())
//	}
package contractkit
