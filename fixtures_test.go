package girbind

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// alphaGIR and betaGIR reference each other: Beta.Button derives from
// Alpha.Widget, and Alpha callables take Beta.Mode.
const alphaGIR = `<?xml version="1.0"?>
<repository version="1.2"
    xmlns="http://www.gtk.org/introspection/core/1.0"
    xmlns:c="http://www.gtk.org/introspection/c/1.0"
    xmlns:glib="http://www.gtk.org/introspection/glib/1.0">
  <include name="Beta" version="1.0"/>
  <namespace name="Alpha" version="1.0" shared-library="libalpha.so" c:identifier-prefixes="Alpha" c:symbol-prefixes="alpha">
    <class name="Widget" c:type="AlphaWidget" glib:type-name="AlphaWidget" glib:get-type="alpha_widget_get_type">
      <constructor name="new" c:identifier="alpha_widget_new">
        <return-value transfer-ownership="full">
          <type name="Widget" c:type="AlphaWidget*"/>
        </return-value>
      </constructor>
      <method name="set_mode" c:identifier="alpha_widget_set_mode">
        <return-value transfer-ownership="none"><type name="none" c:type="void"/></return-value>
        <parameters>
          <instance-parameter name="widget" transfer-ownership="none">
            <type name="Widget" c:type="AlphaWidget*"/>
          </instance-parameter>
          <parameter name="mode" transfer-ownership="none">
            <type name="Beta.Mode" c:type="BetaMode"/>
          </parameter>
        </parameters>
      </method>
      <method name="get_label" c:identifier="alpha_widget_get_label">
        <return-value transfer-ownership="full">
          <type name="utf8" c:type="char*"/>
        </return-value>
        <parameters>
          <instance-parameter name="widget" transfer-ownership="none">
            <type name="Widget" c:type="AlphaWidget*"/>
          </instance-parameter>
        </parameters>
      </method>
    </class>
    <callback name="Notify" c:type="AlphaNotify">
      <return-value transfer-ownership="none"><type name="none" c:type="void"/></return-value>
      <parameters>
        <parameter name="mode" transfer-ownership="none">
          <type name="Beta.Mode" c:type="BetaMode"/>
        </parameter>
      </parameters>
    </callback>
  </namespace>
</repository>`

const betaGIR = `<?xml version="1.0"?>
<repository version="1.2"
    xmlns="http://www.gtk.org/introspection/core/1.0"
    xmlns:c="http://www.gtk.org/introspection/c/1.0"
    xmlns:glib="http://www.gtk.org/introspection/glib/1.0">
  <include name="Alpha" version="1.0"/>
  <namespace name="Beta" version="1.0" shared-library="libbeta.so" c:identifier-prefixes="Beta" c:symbol-prefixes="beta">
    <enumeration name="Mode" c:type="BetaMode">
      <member name="off" value="0" c:identifier="BETA_MODE_OFF"/>
      <member name="on" value="1" c:identifier="BETA_MODE_ON"/>
    </enumeration>
    <record name="Point" c:type="BetaPoint">
      <field name="x"><type name="gint" c:type="gint"/></field>
      <field name="y"><type name="gint" c:type="gint"/></field>
    </record>
    <class name="Button" c:type="BetaButton" parent="Alpha.Widget" glib:type-name="BetaButton" glib:get-type="beta_button_get_type">
      <method name="click" c:identifier="beta_button_click">
        <return-value transfer-ownership="none"><type name="none" c:type="void"/></return-value>
        <parameters>
          <instance-parameter name="button" transfer-ownership="none">
            <type name="Button" c:type="BetaButton*"/>
          </instance-parameter>
          <parameter name="at" transfer-ownership="none">
            <type name="Point" c:type="BetaPoint"/>
          </parameter>
        </parameters>
      </method>
    </class>
  </namespace>
</repository>`

// writeGIR writes content to dir/name and returns the path.
func writeGIR(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// fixturePaths writes both fixture documents to a fresh directory.
func fixturePaths(t *testing.T) (alpha, beta string) {
	t.Helper()
	dir := t.TempDir()
	return writeGIR(t, dir, "Alpha-1.0.gir", alphaGIR), writeGIR(t, dir, "Beta-1.0.gir", betaGIR)
}
