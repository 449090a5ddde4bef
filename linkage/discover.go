package linkage

import (
	"fmt"

	"github.com/wippyai/entitle/bytecode"
	"github.com/wippyai/entitle/classfile"
	"github.com/wippyai/entitle/errors"
)

// siteCollector records the invokedynamic instructions bootstrapped by one method.
type siteCollector struct {
	bytecode.Discard
	bootstrap bytecode.Handle
	key       SiteKey
	sites     []Site
	err       error
}

func (c *siteCollector) VisitInvokeDynamicInsn(name, desc string, bsm bytecode.Handle, args ...any) {
	if c.err != nil || bsm.Owner != c.bootstrap.Owner || bsm.Name != c.bootstrap.Name {
		return
	}
	site, err := decodeSite(args)
	if err != nil {
		c.err = errors.New(errors.PhaseLink, errors.KindInvalidData).
			Class(c.key.Owner).
			Method(c.key.Method).
			Detail("call site %d: %v", c.key.Index, err).
			Build()
		return
	}
	site.Key = c.key
	c.sites = append(c.sites, site)
	c.key.Index++
}

func decodeSite(args []any) (Site, error) {
	if len(args) < 2 {
		return Site{}, fmt.Errorf("%d bootstrap arguments, want at least 2", len(args))
	}
	name, ok := args[0].(string)
	if !ok {
		return Site{}, fmt.Errorf("method name argument is %T", args[0])
	}
	check, ok := args[1].(bytecode.Handle)
	if !ok {
		return Site{}, fmt.Errorf("check argument is %T", args[1])
	}
	site := Site{Name: name, Check: check}
	for _, a := range args[2:] {
		ref, ok := a.(bytecode.ClassRef)
		if !ok {
			return Site{}, fmt.Errorf("capability argument is %T", a)
		}
		site.Capabilities = append(site.Capabilities, ref.Name)
	}
	return site, nil
}

// Discover returns the check call sites of a class whose bootstrap method has the
// owner and name of bootstrap, in method order.
func Discover(data []byte, bootstrap bytecode.Handle) ([]Site, error) {
	cf, err := classfile.Parse(data)
	if err != nil {
		return nil, err
	}
	var sites []Site
	for _, m := range cf.Methods {
		c := &siteCollector{
			bootstrap: bootstrap,
			key:       SiteKey{Owner: cf.Name(), Method: m.Name + m.Descriptor},
		}
		if err := bytecode.Accept(cf, m, c); err != nil {
			return nil, err
		}
		if c.err != nil {
			return nil, c.err
		}
		sites = append(sites, c.sites...)
	}
	return sites, nil
}
