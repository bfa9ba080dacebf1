package compiler

import "strings"

func makeSet(list string) map[string]bool {
	m := make(map[string]bool)
	for _, s := range strings.Split(list, ",") {
		m[s] = true
	}
	return m
}

var (
	htmlTags = makeSet("html,body,base,head,link,meta,style,title," +
		"address,article,aside,footer,header,h1,h2,h3,h4,h5,h6,hgroup,nav,section," +
		"div,dd,dl,dt,figcaption,figure,picture,hr,img,li,main,ol,p,pre,ul," +
		"a,b,abbr,bdi,bdo,br,cite,code,data,dfn,em,i,kbd,mark,q,rp,rt,rtc,ruby," +
		"s,samp,small,span,strong,sub,sup,time,u,var,wbr,area,audio,map,track,video," +
		"embed,object,param,source,canvas,script,noscript,del,ins," +
		"caption,col,colgroup,table,thead,tbody,td,th,tr," +
		"button,datalist,fieldset,form,input,label,legend,meter,optgroup,option," +
		"output,progress,select,textarea," +
		"details,dialog,menu,menuitem,summary," +
		"content,element,shadow,template,blockquote,iframe,tfoot")

	svgTags = makeSet("svg,animate,circle,clippath,cursor,defs,desc,ellipse,filter,font-face," +
		"foreignobject,g,glyph,image,line,marker,mask,missing-glyph,path,pattern," +
		"polygon,polyline,rect,switch,symbol,text,textpath,tspan,use,view")

	unaryTags = makeSet("area,base,br,col,embed,frame,hr,img,input,isindex,keygen," +
		"link,meta,param,source,track,wbr")

	canBeLeftOpenTags = makeSet("colgroup,dd,dt,li,options,p,td,tfoot,th,thead,tr,source")

	nonPhrasingTags = makeSet("address,article,aside,base,blockquote,body,caption,col,colgroup,dd," +
		"details,dialog,div,dl,dt,fieldset,figcaption,figure,footer,form," +
		"h1,h2,h3,h4,h5,h6,head,header,hgroup,hr,html,legend,li,menuitem,meta," +
		"optgroup,option,param,rp,rt,source,style,summary,tbody,td,tfoot,th,thead," +
		"title,tr,track")

	builtInTags = makeSet("slot,component")

	builtInDirectiveNames = makeSet("text,html,show,on,bind,model,pre,cloak,once")

	booleanAttrs = makeSet("allowfullscreen,async,autofocus,autoplay,checked,compact,controls,declare," +
		"default,defaultchecked,defaultmuted,defaultselected,defer,disabled," +
		"enabled,formnovalidate,hidden,indeterminate,inert,ismap,itemscope,loop,multiple," +
		"muted,nohref,noresize,noshade,novalidate,nowrap,open,pauseonexit," +
		"readonly,required,reversed,scoped,seamless,selected,sortable," +
		"truespeed,typemustmatch,visible")

	enumeratedAttrs = makeSet("contenteditable,draggable,spellcheck")

	renderableAttrs = makeSet("accept,accept-charset,accesskey,action,align,alt,async,autocomplete," +
		"autofocus,autoplay,autosave,bgcolor,border,buffered,challenge,charset," +
		"checked,cite,class,code,codebase,color,cols,colspan,content," +
		"contenteditable,contextmenu,controls,coords,data,datetime,default," +
		"defer,dir,dirname,disabled,download,draggable,dropzone,enctype,for," +
		"form,formaction,headers,height,hidden,high,href,hreflang,http-equiv," +
		"icon,id,ismap,itemprop,keytype,kind,label,lang,language,list,loop,low," +
		"manifest,max,maxlength,media,method,GET,POST,min,multiple,email,file," +
		"muted,name,novalidate,open,optimum,pattern,ping,placeholder,poster," +
		"preload,radiogroup,readonly,rel,required,reversed,rows,rowspan,sandbox," +
		"scope,scoped,seamless,selected,shape,size,type,text,password,sizes,span," +
		"spellcheck,src,srcdoc,srclang,srcset,start,step,style,summary,tabindex," +
		"target,title,usemap,value,width,wrap")

	propsToAttrs = map[string]string{
		"acceptCharset": "accept-charset",
		"className":     "class",
		"htmlFor":       "for",
		"httpEquiv":     "http-equiv",
	}

	acceptValueTags = makeSet("input,textarea,option,select,progress")
)

// IsReservedTag reports whether tag is a plain HTML or SVG element rather
// than a component.
func IsReservedTag(tag string) bool {
	return htmlTags[tag] || svgTags[strings.ToLower(tag)]
}

func isUnaryTag(tag string) bool {
	return unaryTags[strings.ToLower(tag)]
}

func isRenderableAttr(name string) bool {
	return renderableAttrs[name] || strings.HasPrefix(name, "data-") || strings.HasPrefix(name, "aria-")
}

func mustUseProp(tag, typ, attr string) bool {
	return (attr == "value" && acceptValueTags[tag] && typ != "button") ||
		(attr == "selected" && tag == "option") ||
		(attr == "checked" && tag == "input") ||
		(attr == "muted" && tag == "video")
}

func isForbiddenTag(el *Element) bool {
	if el.Tag == "style" {
		return true
	}
	if el.Tag != "script" {
		return false
	}
	typ, ok := el.AttrsMap["type"]
	return !ok || typ == "text/javascript"
}

func maybeComponent(el *Element) bool {
	return el.Component != "" || !IsReservedTag(el.Tag)
}
