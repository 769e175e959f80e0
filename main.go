package main

import (
	"fmt"
	"os"

	"github.com/bobuhiro11/gopci/acpi"
	"github.com/bobuhiro11/gopci/device"
	"github.com/bobuhiro11/gopci/domain"
	"github.com/bobuhiro11/gopci/flag"
	"github.com/bobuhiro11/gopci/pcihost"
)

func main() {
	domainNr, bus, windows, err := flag.ParseArgs(os.Args)
	if err != nil {
		panic(err)
	}

	alloc := domain.NewAllocator(domain.Explicit)
	topo := pcihost.NewTopology()
	registry := pcihost.NewRegistry(alloc, device.NewTree(), topo, nil)

	br, err := registry.Create(pcihost.Config{
		Domain:    domainNr,
		Bus:       bus,
		Resources: &windows,
	})
	if err != nil {
		panic(err)
	}

	root, err := topo.NewRootBus(br)
	if err != nil {
		panic(err)
	}

	fmt.Printf("host bridge %s busn %s\n", br.Name(), br.BusnRange())

	for _, w := range br.Windows() {
		region := pcihost.ResourceToRegion(root, w.Range)
		fmt.Printf("  window %s -> bus [%#x-%#x]\n", w, region.Start, region.End)
	}

	mcfg := acpi.NewMCFG("GOPCI ", "GOPCIMCF")

	for _, b := range registry.Bridges() {
		mcfg.AddBridge(b)
	}

	table, err := mcfg.ToBytes()
	if err != nil {
		panic(err)
	}

	fmt.Printf("MCFG: % x\n", table)
}
