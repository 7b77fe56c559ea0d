package autostart

import (
	"context"
	"os"
	"path/filepath"

	"github.com/arthur-debert/rocas/pkg/errors"
	"github.com/beevik/etree"
)

// LaunchAgent renders the property list of the agent starting exe with
// args. Output and errors go to files under logDir.
func LaunchAgent(exe string, args []string, logDir string) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.CreateDirective(`DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd"`)

	plist := doc.CreateElement("plist")
	plist.CreateAttr("version", "1.0")
	dict := plist.CreateElement("dict")

	dict.CreateElement("key").SetText("Label")
	dict.CreateElement("string").SetText(AgentLabel)

	dict.CreateElement("key").SetText("ProgramArguments")
	array := dict.CreateElement("array")
	for _, arg := range append([]string{exe}, args...) {
		array.CreateElement("string").SetText(arg)
	}

	dict.CreateElement("key").SetText("RunAtLoad")
	dict.CreateElement("true")
	dict.CreateElement("key").SetText("KeepAlive")
	dict.CreateElement("true")

	dict.CreateElement("key").SetText("StandardOutPath")
	dict.CreateElement("string").SetText(filepath.Join(logDir, "agent.out"))
	dict.CreateElement("key").SetText("StandardErrorPath")
	dict.CreateElement("string").SetText(filepath.Join(logDir, "agent.err"))

	doc.Indent(4)
	data, err := doc.WriteToBytes()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrAutostart, "cannot render launch agent")
	}
	return data, nil
}

func (i *Installer) installLaunchAgent(ctx context.Context) error {
	logDir := filepath.Join(i.stateHome, "rocas")
	data, err := LaunchAgent(i.exe, i.args, logDir)
	if err != nil {
		return err
	}
	if err := i.fs.MkdirAll(logDir, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrAutostart, "cannot create %s", logDir)
	}
	if err := i.writeFile(i.Path(), data); err != nil {
		return err
	}
	return i.run(ctx, "launchctl", "load", "-w", i.Path())
}

func (i *Installer) uninstallLaunchAgent(ctx context.Context) error {
	if _, err := i.fs.Stat(i.Path()); os.IsNotExist(err) {
		return nil
	}
	if err := i.runner.Run(ctx, "launchctl", "unload", "-w", i.Path()); err != nil {
		i.logger.Warn().Err(err).Msg("Could not unload the agent")
	}
	return i.removeFile(i.Path())
}
